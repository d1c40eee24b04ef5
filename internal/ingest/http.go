// Package ingest implements the three OTLP/HTTP JSON export endpoints that
// feed the normalizer and storage layer.
package ingest

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/stevelerner/tinyotel/internal/normalizer"
	"github.com/stevelerner/tinyotel/internal/store"
	"github.com/stevelerner/tinyotel/pkg/model"
)

var (
	errEmptyBody     = errors.New("empty request body")
	errMalformedBody = errors.New("request body is not valid JSON")
)

// Receiver handles OTLP/HTTP traces/logs/metrics export requests.
type Receiver struct {
	store  *store.Store
	server *http.Server
}

// NewReceiver builds a Receiver listening on addr, backed by s.
func NewReceiver(addr string, s *store.Store) *Receiver {
	r := &Receiver{store: s}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/traces", r.handleTraces)
	mux.HandleFunc("/v1/logs", r.handleLogs)
	mux.HandleFunc("/v1/metrics", r.handleMetrics)

	r.server = &http.Server{Addr: addr, Handler: mux}
	return r
}

// Start runs the ingest HTTP server until it is shut down.
func (r *Receiver) Start() error {
	return r.server.ListenAndServe()
}

// Shutdown gracefully stops the ingest HTTP server.
func (r *Receiver) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}

func (r *Receiver) handleTraces(w http.ResponseWriter, req *http.Request) {
	body, ok := readBody(w, req)
	if !ok {
		return
	}

	spans := normalizer.Traces(body)
	for _, span := range spans {
		if err := r.store.StoreSpan(req.Context(), span); err != nil {
			log.Printf("storing span %s: %v", span.SpanID, err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeOK(w)
}

func (r *Receiver) handleLogs(w http.ResponseWriter, req *http.Request) {
	body, ok := readBody(w, req)
	if !ok {
		return
	}

	logs := normalizer.Logs(body)
	for _, entry := range logs {
		if err := r.store.StoreLog(req.Context(), entry); err != nil {
			log.Printf("storing log: %v", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeOK(w)
}

func (r *Receiver) handleMetrics(w http.ResponseWriter, req *http.Request) {
	body, ok := readBody(w, req)
	if !ok {
		return
	}

	points := normalizer.Metrics(body)
	for _, point := range points {
		if err := r.store.StoreMetric(req.Context(), point); err != nil {
			log.Printf("storing metric %s: %v", point.Name, err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeOK(w)
}

// readBody reads and, if needed, gzip-decompresses the request body,
// writing a 400 response and returning ok=false on any read failure, an
// empty body, or a body that isn't syntactically valid JSON.
func readBody(w http.ResponseWriter, req *http.Request) ([]byte, bool) {
	defer req.Body.Close()

	reader := io.Reader(req.Body)
	if req.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(req.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return nil, false
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, errEmptyBody)
		return nil, false
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, errMalformedBody)
		return nil, false
	}
	return body, true
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.IngestResponse{Status: "ok"})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.IngestResponse{Status: "error", Message: err.Error()})
}
