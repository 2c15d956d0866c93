package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"moim/internal/services"
)

type reconcilePreviewResponse struct {
	EventID  string   `json:"eventId"`
	ToAdd    []string `json:"toAdd"`
	ToRemove []string `json:"toRemove"`
}

func (s *Server) handleReconcilePreview(w http.ResponseWriter, r *http.Request) {
	preview, err := s.reconcile.Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reconcilePreviewResponse{
		EventID:  preview.EventID,
		ToAdd:    preview.Diff.ToAdd,
		ToRemove: preview.Diff.ToRemove,
	})
}

type reconcileCommitRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

type reconcileCommitResponse struct {
	AddedIDs    []string `json:"addedIds"`
	Removed     int      `json:"removed"`
	AddError    string   `json:"addError,omitempty"`
	RemoveError string   `json:"removeError,omitempty"`
	Failed      bool     `json:"failed"`
}

// handleReconcileCommit applies the operator's selection. The two
// batches are independent, so a partial failure still answers 200 with
// the per-batch outcomes in the body; only a systemic fault (unknown
// event, storage down) maps to an error status.
func (s *Server) handleReconcileCommit(w http.ResponseWriter, r *http.Request) {
	var req reconcileCommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	result, err := s.reconcile.Commit(r.Context(), chi.URLParam(r, "id"), services.CommitSelection{
		Add:    req.Add,
		Remove: req.Remove,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := reconcileCommitResponse{
		AddedIDs: result.AddedIDs,
		Removed:  result.Removed,
		Failed:   result.Failed(),
	}
	if result.AddErr != nil {
		resp.AddError = result.AddErr.Error()
	}
	if result.RemoveErr != nil {
		resp.RemoveError = result.RemoveErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
