package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/soilstab/internal/service"
	sharedmw "github.com/emiliopalmerini/soilstab/internal/shared/middleware"
)

//go:embed static/*
var staticFiles embed.FS

// RequestObserver records served requests and exposes them for scraping.
type RequestObserver interface {
	Observe(method, route string, code int, elapsed time.Duration)
	Handler() http.Handler
}

type Server struct {
	router  chi.Router
	port    int
	svc     *service.Recommender
	logger  *zap.Logger
	metrics RequestObserver
}

// NewServer builds the router. metrics may be nil, in which case /metrics is
// not served.
func NewServer(svc *service.Recommender, port int, logger *zap.Logger, metrics RequestObserver) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:  chi.NewRouter(),
		port:    port,
		svc:     svc,
		logger:  logger,
		metrics: metrics,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	if s.metrics != nil {
		r.Use(observe(s.metrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(sharedmw.HTMX)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to create static filesystem: %v", err))
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Pages
	r.Get("/", s.handleIndex)
	r.Post("/recommend", s.handleRecommend)
	r.Get("/history", s.handleHistory)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Post("/recommend", s.handleAPIRecommend)
		r.Get("/params", s.handleAPIParams)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting server", zap.String("url", fmt.Sprintf("http://localhost:%d", s.port)))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
