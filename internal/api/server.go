package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/estimator/internal/processor"
	"github.com/MikeSquared-Agency/estimator/internal/store"
	"github.com/MikeSquared-Agency/estimator/internal/webhook"
)

// maxBodyBytes caps request bodies; Slack deliveries are far smaller.
const maxBodyBytes = 1 << 20

const statusCheckTimeout = 2 * time.Second

// EventHandler handles Slack Events API deliveries.
type EventHandler interface {
	Handle(ctx context.Context, body []byte, headers http.Header) webhook.Response
}

// Extraction runs an interactive extraction.
type Extraction interface {
	Extract(ctx context.Context, req processor.Request) (*processor.Extraction, error)
}

// RecordStore is the estimation persistence surface.
type RecordStore interface {
	List(ctx context.Context, opts store.ListOptions) ([]store.Estimation, error)
	Get(ctx context.Context, id string) (*store.Estimation, error)
	Create(ctx context.Context, in store.NewEstimation) (*store.Estimation, error)
	Update(ctx context.Context, id string, patch store.Patch) (*store.Estimation, error)
	Delete(ctx context.Context, id string) error
}

// HealthCheck reports whether a live dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the components behind the HTTP surface. Nil components leave
// their routes unregistered.
type Deps struct {
	Events         EventHandler
	Extractor      Extraction
	Records        RecordStore
	APIToken       string
	ExtractTimeout time.Duration
	Integrations   map[string]bool
	Checks         map[string]HealthCheck
	Logger         *slog.Logger
}

type Server struct {
	router *chi.Mux
	port   int
	deps   Deps
	logger *slog.Logger
	http   *http.Server
}

func NewServer(port int, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ExtractTimeout <= 0 {
		deps.ExtractTimeout = processor.DefaultTimeout
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		deps:   deps,
		logger: deps.Logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/estimator/status", s.status)

	if deps.Events != nil {
		router.Post("/api/slack/events", s.slackEvents)
	}

	router.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(deps.APIToken))

		if deps.Extractor != nil {
			r.With(middleware.Timeout(deps.ExtractTimeout)).Post("/api/extract", s.extract)
		}
		if deps.Records != nil {
			r.Route("/api/estimations", func(r chi.Router) {
				r.Get("/", s.listEstimations)
				r.Post("/", s.createEstimation)
				r.Get("/{id}", s.getEstimation)
				r.Patch("/{id}", s.updateEstimation)
				r.Delete("/{id}", s.deleteEstimation)
			})
		}
	})

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	integrations := s.deps.Integrations
	if integrations == nil {
		integrations = map[string]bool{}
	}
	status := "ok"
	connections := make(map[string]bool, len(s.deps.Checks))
	for name, check := range s.deps.Checks {
		ctx, cancel := context.WithTimeout(r.Context(), statusCheckTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			s.logger.Warn("status check failed", "check", name, "error", err)
			status = "degraded"
		}
		connections[name] = err == nil
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":        "estimator",
		"status":       status,
		"integrations": integrations,
		"connections":  connections,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
