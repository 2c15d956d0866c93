package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"moim/internal/core"
	"moim/internal/log"
	"moim/internal/ports"
	"moim/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

type idResponse struct {
	ID string `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the error taxonomy onto HTTP statuses: validation
// 400, unknown id 404, duplicate/stale 409, upstream transport 502,
// everything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

var validationErrors = []error{
	core.ErrInvalidDate,
	core.ErrInvalidType,
	core.ErrInvalidAmount,
	core.ErrEmptyCategory,
	core.ErrEmptyDetail,
	core.ErrDetailTooLong,
	core.ErrEmptyName,
	core.ErrEmptyMemberName,
	core.ErrInvalidGranularity,
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ports.ErrUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrNoLinkedEvent):
		return http.StatusBadRequest
	}
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
