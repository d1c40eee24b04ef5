package ingest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stevelerner/tinyotel/internal/store"
	"github.com/stevelerner/tinyotel/internal/store/membackend"
)

func newTestReceiver() (*Receiver, *store.Store) {
	backend := membackend.New()
	s := store.New(backend, time.Hour, 1000)
	return NewReceiver(":0", s), s
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleTracesPartialBatchSuccess(t *testing.T) {
	r, s := newTestReceiver()
	_ = s

	body := `{"resourceSpans":[{"resource":{},"scopeSpans":[{"spans":[
 {"traceId":"aa","spanId":"s1"},
 {"traceId":"aa"}]}]}]}`

	rec := postJSON(t, r.handleTraces, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleTracesEmptyBody(t *testing.T) {
	r, _ := newTestReceiver()
	rec := postJSON(t, r.handleTraces, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleTracesMalformedBody(t *testing.T) {
	r, _ := newTestReceiver()
	rec := postJSON(t, r.handleTraces, "not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleLogsOK(t *testing.T) {
	r, _ := newTestReceiver()
	rec := postJSON(t, r.handleLogs, `{"timestamp":1.0,"message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleMetricsOK(t *testing.T) {
	r, _ := newTestReceiver()
	rec := postJSON(t, r.handleMetrics, `{"name":"foo","value":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
