// Package api provides the REST query API over the stored telemetry.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stevelerner/tinyotel/internal/query"
	"github.com/stevelerner/tinyotel/internal/store"
)

// Server is the query API server.
type Server struct {
	query          *query.Query
	store          *store.Store
	maxCardinality int
	router         *chi.Mux
	server         *http.Server
}

// NewServer builds a Server listening on addr, backed by q and s.
// maxCardinality is echoed back in /api/metrics and /api/stats responses.
func NewServer(addr string, q *query.Query, s *store.Store, maxCardinality int) *Server {
	srv := &Server{query: q, store: s, maxCardinality: maxCardinality, router: chi.NewRouter()}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.RealIP)
	srv.router.Use(middleware.Logger)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(middleware.Timeout(60 * time.Second))

	srv.router.Get("/health", srv.handleHealth)
	srv.router.Route("/api", func(r chi.Router) {
		r.Get("/traces", srv.handleRecentTraces)
		r.Get("/traces/{tid}", srv.handleFullTrace)
		r.Get("/spans", srv.handleRecentSpans)
		r.Get("/logs", srv.handleLogs)
		r.Get("/metrics", srv.handleMetricNames)
		r.Get("/metrics/{name}", srv.handleMetricData)
		r.Get("/service-map", srv.handleServiceGraph)
		r.Get("/stats", srv.handleStats)
	})

	srv.server = &http.Server{Addr: addr, Handler: srv.router}
	return srv
}

// Start runs the query API server until it is shut down.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the query API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRecentTraces(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)

	summaries, err := s.query.RecentTraces(r.Context(), limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleFullTrace(w http.ResponseWriter, r *http.Request) {
	tid := chi.URLParam(r, "tid")

	trace, err := s.query.FullTrace(r.Context(), tid)
	if err != nil {
		if errors.Is(err, query.ErrTraceNotFound) {
			s.respondError(w, http.StatusNotFound, err)
			return
		}
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, trace)
}

func (s *Server) handleRecentSpans(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)

	spans, err := s.query.RecentSpans(r.Context(), limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, spans)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	traceID := r.URL.Query().Get("trace_id")
	limit := queryInt(r, "limit", 100)

	logs, err := s.query.Logs(r.Context(), traceID, limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, logs)
}

func (s *Server) handleMetricNames(w http.ResponseWriter, r *http.Request) {
	limit := int(queryInt(r, "limit", 0))

	resp, err := s.query.MetricNames(r.Context(), limit, s.maxCardinality)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetricData(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	start := queryFloat(r, "start", 0)
	end := queryFloat(r, "end", 0)

	resp, err := s.query.MetricData(r.Context(), name, start, end)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleServiceGraph(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)

	graph, err := s.query.ServiceGraph(r.Context(), limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, graph)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.query.Stats(r.Context(), s.maxCardinality)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, defaultVal int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}

func queryFloat(r *http.Request, key string, defaultVal float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
