// Package server exposes the log store, collection and analytics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"opslens/src/analytics"
	"opslens/src/classify"
	"opslens/src/collector"
	"opslens/src/config"
	"opslens/src/contracts"
	"opslens/src/logger"
	"opslens/src/metrics"
	"opslens/src/pipeline"
	"opslens/src/store"
)

const shutdownTimeout = 10 * time.Second

// Server serves the opslens HTTP API.
type Server struct {
	svc     *pipeline.Service
	store   store.Store
	metrics *metrics.Metrics
	cfg     *config.Config
	log     logger.Logger
	limiter *rate.Limiter
	now     func() time.Time
	router  chi.Router
}

// New builds the router. m may be nil, in which case /metrics is not served.
func New(svc *pipeline.Service, m *metrics.Metrics, cfg *config.Config, log logger.Logger) *Server {
	s := &Server{
		svc:     svc,
		store:   svc.Store(),
		metrics: m,
		cfg:     cfg,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(cfg.Server.CollectRate), cfg.Server.CollectBurst),
		now:     time.Now,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/rules", s.handleRules)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/logs", func(r chi.Router) {
		r.Get("/", s.handleQueryLogs)
		r.With(s.rateLimit).Post("/", s.handleCollectLogs)
		r.Delete("/", s.handleClearLogs)
		r.Get("/{id}", s.handleGetLog)
	})
	r.Get("/analytics", s.handleAnalytics)

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("[Server] Listening on %s", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("[Server] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

type logsResponse struct {
	Logs  []contracts.ClassifiedLog `json:"logs"`
	Total int                       `json:"total"`
}

type collectRequest struct {
	Source string           `json:"source"`
	Config collector.Config `json:"config"`
}

type collectResponse struct {
	Collected int                       `json:"collected"`
	Analyzed  int                       `json:"analyzed"`
	Logs      []contracts.ClassifiedLog `json:"logs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"logs":   s.store.Len(),
	})
}

type ruleResponse struct {
	Name         string             `json:"name"`
	Pattern      string             `json:"pattern"`
	Category     contracts.Category `json:"category"`
	Severity     contracts.Severity `json:"severity"`
	Keywords     []string           `json:"keywords"`
	SuggestedFix string             `json:"suggestedFix"`
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	rules := classify.Rules()
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleResponse{
			Name:         rule.Name,
			Pattern:      rule.Pattern.String(),
			Category:     rule.Category,
			Severity:     rule.Severity,
			Keywords:     rule.Keywords,
			SuggestedFix: rule.SuggestedFix,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleQueryLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.QueryOptions{
		Category: contracts.Category(q.Get("category")),
		Severity: contracts.Severity(q.Get("severity")),
		Limit:    s.cfg.Store.QueryLimit,
	}
	if v := q.Get("source"); v != "" {
		opts.Source = contracts.Source(v)
		if src, err := contracts.ParseSource(v); err == nil {
			opts.Source = src
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: "Invalid limit",
				Hint:  "limit must be a positive integer",
			})
			return
		}
		opts.Limit = limit
	}

	logs, total := s.store.Query(opts)
	if logs == nil {
		logs = []contracts.ClassifiedLog{}
	}
	writeJSON(w, http.StatusOK, logsResponse{Logs: logs, Total: total})
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	log, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		var notFound store.ErrNotFound
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) handleCollectLogs(w http.ResponseWriter, r *http.Request) {
	var req collectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	res, err := s.svc.Collect(r.Context(), req.Source, req.Config)
	if err != nil {
		if userErr, ok := collector.AsUserError(err); ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: userErr.Message, Hint: userErr.Hint})
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, collectResponse{
		Collected: res.Collected,
		Analyzed:  res.Analyzed,
		Logs:      res.Logs,
	})
}

func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	n := s.store.Len()
	s.store.Clear()
	s.log.Info("[Server] Cleared %d logs", n)
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	window := s.cfg.Store.AnalyticsWindow
	if window <= 0 {
		window = store.DefaultQueryLimit
	}
	writeJSON(w, http.StatusOK, analytics.Summarize(s.store.Recent(window), s.now()))
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverer turns handler panics into the JSON 500 body every other error
// response uses. http.ErrAbortHandler is re-raised for middleware.Recoverer.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.log.Error("[Server] Panic serving %s %s (request %s): %v",
				r.Method, r.URL.Path, middleware.GetReqID(r.Context()), rec)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("[Server] %s %s (request %s): %v",
		r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
