package web

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/photo-cleaner/internal/constants"
	"github.com/kozaktomas/photo-cleaner/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	analysisHandler := handlers.NewAnalysisHandler(s.engine, s.logger)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/authorize", analysisHandler.Authorize)

		// Analysis lifecycle
		r.Post("/analysis", analysisHandler.Start)
		r.Get("/analysis", analysisHandler.Status)
		r.Get("/analysis/result", analysisHandler.Result)
		r.Get("/analysis/events", analysisHandler.Events)
		r.Delete("/analysis", analysisHandler.Cancel)

		// Deletion runs a full re-analysis before responding.
		r.With(chiMiddleware.Timeout(constants.RequestTimeout)).
			Post("/photos/delete", analysisHandler.Delete)
	})
}
