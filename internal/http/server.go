// Package http exposes the finance engine as a JSON API. Request
// payloads are normalized into the canonical core shapes at this
// boundary; nothing below it branches on which alias a client sent.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"moim/internal/log"
	"moim/internal/services"
)

type Server struct {
	http.Server
	ledger    *services.LedgerService
	dues      *services.DuesService
	reconcile *services.ReconcileService
	logger    *log.Logger
}

// NewServer wires the routes and returns a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, dues *services.DuesService, reconcile *services.ReconcileService, logger *log.Logger) *Server {
	s := &Server{
		ledger:    ledger,
		dues:      dues,
		reconcile: reconcile,
		logger:    logger.WithComponent(log.ComponentHTTP),
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(s.requestLogger)

	router.Get("/healthz", handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/statement", s.handleStatement)
			r.Get("/reports/period", s.handlePeriodReport)
			r.Get("/reports/categories", s.handleCategoryReport)
			r.Post("/records", s.handleCreateRecord)
			r.Post("/records/batch", s.handleCreateRecordsBatch)
			r.Put("/records/{id}", s.handleUpdateRecord)
			r.Delete("/records/{id}", s.handleDeleteRecord)
		})

		r.Route("/dues", func(r chi.Router) {
			r.Get("/events", s.handleListEvents)
			r.Post("/events", s.handleCreateEvent)
			r.Get("/events/{id}", s.handleGetEvent)
			r.Put("/events/{id}", s.handleUpdateEvent)
			r.Delete("/events/{id}", s.handleDeleteEvent)
			r.Get("/events/{id}/roster", s.handleRoster)
			r.Post("/events/{id}/roster", s.handleSeedRoster)
			r.Get("/events/{id}/stats", s.handleStats)
			r.Get("/events/{id}/reconcile", s.handleReconcilePreview)
			r.Post("/events/{id}/reconcile", s.handleReconcileCommit)
			r.Put("/records/{id}", s.handleUpdateDuesRecord)
			r.Delete("/records/{id}", s.handleDeleteDuesRecord)
		})

		r.Get("/members", s.handleSearchMembers)
	})

	s.Addr = addr
	s.Handler = router
	return s
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.InfoContext(r.Context(), "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, ww.Status(),
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
