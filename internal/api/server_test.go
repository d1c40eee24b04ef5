package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stevelerner/tinyotel/internal/config"
	"github.com/stevelerner/tinyotel/internal/query"
	"github.com/stevelerner/tinyotel/internal/store"
	"github.com/stevelerner/tinyotel/internal/store/membackend"
	"github.com/stevelerner/tinyotel/pkg/model"
)

func newTestServer() *Server {
	backend := membackend.New()
	s := store.New(backend, time.Hour, 1000)
	q := query.New(backend, config.DefaultHTTPAliases())
	return NewServer(":0", q, s, 1000)
}

func TestHealthOK(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestFullTraceNotFoundReturns404(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/traces/missing", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRecentTracesReturnsStoredTrace(t *testing.T) {
	srv := newTestServer()
	ctx := context.Background()
	if err := srv.store.StoreSpan(ctx, &model.SpanRecord{TraceID: "t1", SpanID: "s1", Name: "GET /"}); err != nil {
		t.Fatalf("StoreSpan: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/traces", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var summaries []model.TraceSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(summaries) != 1 || summaries[0].TraceID != "t1" {
		t.Fatalf("got %+v, want one summary for t1", summaries)
	}
}

func TestStatsReflectsMaxCardinality(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	var stats model.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if stats.MetricsMax != 1000 {
		t.Fatalf("metrics_max = %d, want 1000", stats.MetricsMax)
	}
}
