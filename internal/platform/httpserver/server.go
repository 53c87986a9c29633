package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"agora/contexts/elections/balloting"
	"agora/contexts/elections/timeline"
	_ "agora/internal/platform/httpserver/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	requestTimeout     = 30 * time.Second
	healthCheckTimeout = 2 * time.Second
)

// HealthCheck reports a dependency failure for /healthz.
type HealthCheck func(ctx context.Context) error

type Server struct {
	router    chi.Router
	logger    *slog.Logger
	addr      string
	timeline  timeline.Module
	balloting balloting.Module
	gatherer  prometheus.Gatherer
	checks    map[string]HealthCheck
	srv       *http.Server
}

func New(
	timelineModule timeline.Module,
	ballotingModule balloting.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger,
		addr:      addr,
		timeline:  timelineModule,
		balloting: ballotingModule,
		gatherer:  prometheus.DefaultGatherer,
		checks:    make(map[string]HealthCheck),
	}
	s.registerRoutes()
	return s
}

// WithMetrics serves /metrics from gatherer instead of the default registry.
func (s *Server) WithMetrics(gatherer prometheus.Gatherer) *Server {
	if gatherer != nil {
		s.gatherer = gatherer
	}
	return s
}

func (s *Server) WithHealthCheck(name string, check HealthCheck) *Server {
	if check != nil {
		s.checks[name] = check
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealth)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, req)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(requestTimeout))

		api.Get("/timeline/status", s.handleTimelineStatus)
		api.Get("/timeline/stages", s.handleListStages)
		api.Get("/timeline/stages/{stage_id}", s.handleGetStage)
		api.Put("/timeline/stages", s.handleUpsertStage)
		api.Delete("/timeline/stages/{stage_id}", s.handleDeleteStage)
		api.Get("/timeline/eligibility/{action}", s.handleEligibility)

		api.Post("/votes", s.handleSubmitVote)
		api.Post("/votes/recover", s.handleRecoverBallot)
		api.Get("/results", s.handleResults)

		api.Get("/admin/reconciliation", s.handleListReconciliation)
		api.Post("/admin/reconciliation/{item_id}/resolve", s.handleResolveReconciliation)
		api.Post("/admin/tallies/reconcile", s.handleReconcileTallies)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request served",
			"event", "http_request",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(started).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
