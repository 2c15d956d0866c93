package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"moim/internal/core"
)

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req ledgerRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	rec, err := req.toCore("")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	id, err := s.ledger.CreateRecord(r.Context(), rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req ledgerRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	rec, err := req.toCore(chi.URLParam(r, "id"))
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.ledger.UpdateRecord(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type batchCreateRequest struct {
	Records []ledgerRecordRequest `json:"records"`
}

type batchCreateResponse struct {
	IDs   []string `json:"ids"`
	Error string   `json:"error,omitempty"`
}

// handleCreateRecordsBatch stores many records in one call. Failures
// inside the batch are per-record: the response always lists what
// landed, alongside the joined error when something did not.
func (s *Server) handleCreateRecordsBatch(w http.ResponseWriter, r *http.Request) {
	var req batchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.Records) == 0 {
		s.badRequest(w, fmt.Errorf("no records in batch"))
		return
	}

	recs := make([]core.LedgerRecord, 0, len(req.Records))
	for i, rr := range req.Records {
		rec, err := rr.toCore("")
		if err != nil {
			s.badRequest(w, fmt.Errorf("record %d: %w", i, err))
			return
		}
		recs = append(recs, rec)
	}

	ids, err := s.ledger.CreateRecordsBatch(r.Context(), recs)
	if err != nil {
		writeJSON(w, statusFor(err), batchCreateResponse{IDs: ids, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, batchCreateResponse{IDs: ids})
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	filter, err := statementFilterFromQuery(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	entries, err := s.ledger.Statement(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": toStatementResponse(entries),
	})
}

func (s *Server) handlePeriodReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDay(q.Get("from"))
	if err != nil {
		s.badRequest(w, err)
		return
	}
	to, err := parseDay(q.Get("to"))
	if err != nil {
		s.badRequest(w, err)
		return
	}
	granularity, err := parseGranularity(q.Get("granularity"))
	if err != nil {
		s.badRequest(w, err)
		return
	}

	buckets, err := s.ledger.PeriodReport(r.Context(), from, to, granularity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"granularity": granularity,
		"buckets":     toPeriodResponse(buckets),
	})
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseOptionalDay(q.Get("from"))
	if err != nil {
		s.badRequest(w, err)
		return
	}
	to, err := parseOptionalDay(q.Get("to"))
	if err != nil {
		s.badRequest(w, err)
		return
	}

	totals, err := s.ledger.CategoryReport(r.Context(), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": toCategoryResponse(totals),
	})
}
