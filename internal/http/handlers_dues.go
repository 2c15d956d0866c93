package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.dues.ListEvents(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]duesEventResponse, len(events))
	for i, e := range events {
		out[i] = toDuesEventResponse(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.dues.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDuesEventResponse(event))
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req duesEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	event, err := req.toCore("")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	id, err := s.dues.CreateEvent(r.Context(), event)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req duesEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	event, err := req.toCore(chi.URLParam(r, "id"))
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.dues.UpdateEvent(r.Context(), event); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.dues.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := s.dues.ListRoster(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roster": toRosterResponse(roster)})
}

type seedRosterRequest struct {
	MemberNames []string `json:"memberNames"`
}

func (s *Server) handleSeedRoster(w http.ResponseWriter, r *http.Request) {
	var req seedRosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.MemberNames) == 0 {
		s.badRequest(w, fmt.Errorf("no member names"))
		return
	}

	ids, err := s.dues.SeedRoster(r.Context(), chi.URLParam(r, "id"), req.MemberNames)
	if err != nil {
		writeJSON(w, statusFor(err), batchCreateResponse{IDs: ids, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, batchCreateResponse{IDs: ids})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dues.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (s *Server) handleUpdateDuesRecord(w http.ResponseWriter, r *http.Request) {
	var req duesRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	rec, err := req.toCore(chi.URLParam(r, "id"))
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.dues.UpdateRecord(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteDuesRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.dues.DeleteRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	members, err := s.dues.SearchMembers(r.Context(), q.Get("q"), q.Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	type memberResponse struct {
		Name   string `json:"name"`
		Status string `json:"status,omitempty"`
	}
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = memberResponse{Name: m.Name, Status: m.Status}
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}
