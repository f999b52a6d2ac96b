package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kozaktomas/facefit/internal/camera"
	"github.com/kozaktomas/facefit/internal/config"
	"github.com/kozaktomas/facefit/internal/faceapi"
	"github.com/kozaktomas/facefit/internal/metrics"
	"github.com/kozaktomas/facefit/internal/presentation"
	"github.com/kozaktomas/facefit/internal/web/handlers"
	"github.com/kozaktomas/facefit/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config         *config.Config
	router         *chi.Mux
	httpServer     *http.Server
	logger         *zap.Logger
	metrics        *metrics.Metrics
	renderer       *presentation.Renderer
	client         *faceapi.Client
	device         camera.Device
	sessionManager *middleware.SessionManager
	analyzeHandler *handlers.AnalyzeHandler

	// closed when shutdown begins so long-lived streams return
	shuttingDown chan struct{}
	closeOnce    sync.Once
}

// NewServer creates a new web server talking to the analysis service through client.
// device may be nil when no network camera is configured.
func NewServer(cfg *config.Config, client *faceapi.Client, device camera.Device, logger *zap.Logger) (*Server, error) {
	renderer, err := presentation.NewRenderer()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	s := &Server{
		config:         cfg,
		router:         r,
		logger:         logger,
		metrics:        metrics.New(),
		renderer:       renderer,
		client:         client,
		device:         device,
		sessionManager: middleware.NewSessionManager(cfg.Web.SessionSecret, cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		shuttingDown:   make(chan struct{}),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	// Set up routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute, // Long timeout for SSE
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown does not cancel request contexts; SSE streams watch this instead
	s.httpServer.RegisterOnShutdown(s.closeStreams)

	return s, nil
}

func (s *Server) closeStreams() {
	s.closeOnce.Do(func() { close(s.shuttingDown) })
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve serves on ln until ctx is done. It returns only after Shutdown has
// completed, so in-flight analyses have finished or the timeout has passed.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	s.logger.Info("starting web server",
		zap.String("addr", ln.Addr().String()),
		zap.String("api_url", s.client.URL),
		zap.Bool("network_camera", s.device != nil),
	)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		s.sessionManager.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server. In-flight analyses are allowed
// to finish within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")

	err := s.httpServer.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.analyzeHandler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("in-flight analyses did not finish before shutdown")
	}

	// Stop the session cleanup goroutine and release cameras
	s.sessionManager.Stop()

	if err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
