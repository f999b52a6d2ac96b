package web

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/facefit/internal/web/handlers"
	"github.com/kozaktomas/facefit/internal/web/middleware"
	"github.com/kozaktomas/facefit/internal/web/static"
)

func (s *Server) setupRoutes() {
	// Create handlers
	s.analyzeHandler = handlers.NewAnalyzeHandler(s.client, s.metrics, s.logger)
	pageHandler := handlers.NewPageHandler(s.renderer, s.device != nil, s.shuttingDown, s.logger)
	cameraHandler := handlers.NewCameraHandler(s.device, s.analyzeHandler, s.metrics, s.logger)
	backendHealthHandler := handlers.NewBackendHealthHandler(s.client, s.logger)

	// No session required
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Get("/api/v1/backend/health", backendHealthHandler.Get)
	s.router.Handle("/metrics", s.metrics.Handler())
	s.router.Handle("/static/*", static.Handler("/static/"))

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Sessions(s.sessionManager))

		// Long-lived event stream, no request timeout
		r.Get("/events", pageHandler.Events)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(time.Minute))

			r.Get("/", pageHandler.Index)
			r.Get("/api/v1/state", pageHandler.State)
			r.Post("/start-over", pageHandler.StartOver)

			r.With(middleware.RateLimit).Post("/analyze", s.analyzeHandler.Analyze)

			r.Route("/camera", func(r chi.Router) {
				r.Post("/start", cameraHandler.Start)
				r.Get("/preview.jpg", cameraHandler.Preview)
				r.With(middleware.RateLimit).Post("/capture", cameraHandler.Capture)
				r.Post("/cancel", cameraHandler.Cancel)
			})
		})
	})
}
