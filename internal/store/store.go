package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stevelerner/tinyotel/pkg/model"
)

const (
	keyTraceIndex         = "trace_index"
	keySpanIndex          = "span_index"
	keyLogIndex           = "log_index"
	keyMetricNames        = "metric_names"
	keyMetricDroppedCount = "metric_dropped_count"
	keyMetricDroppedNames = "metric_dropped_names"

	droppedNameTTL = time.Hour
)

func keySpan(spanID string) string       { return "span:" + spanID }
func keyLog(logID string) string         { return "log:" + logID }
func keyTraceSpans(traceID string) string { return "trace:" + traceID + ":spans" }
func keyTraceLogs(traceID string) string   { return "trace:" + traceID + ":logs" }
func keyTraceSpanSet(traceID string) string { return "trace:" + traceID }
func keyMetric(name string) string       { return "metric:" + name }

// nowFunc is overridable in tests that need deterministic store-time scores.
var nowFunc = func() time.Time { return time.Now() }

// Store is the storage layer: it writes normalized records through a
// Backend and maintains the time indices, per-trace lists/sets, per-metric
// sorted sets, and cardinality bookkeeping described in the data model.
type Store struct {
	backend    Backend
	ttl        time.Duration
	maxMetrics int
}

// New creates a Store over backend, refreshing every touched key to ttl on
// each write and capping distinct metric names at maxMetrics.
func New(backend Backend, ttl time.Duration, maxMetrics int) *Store {
	return &Store{backend: backend, ttl: ttl, maxMetrics: maxMetrics}
}

// StoreSpan persists span and indexes it. A span missing trace_id or
// span_id is a silent no-op, per the data model's drop rule.
func (s *Store) StoreSpan(ctx context.Context, span *model.SpanRecord) error {
	if span.TraceID == "" || span.SpanID == "" {
		return nil
	}

	serialized, err := json.Marshal(span)
	if err != nil {
		return fmt.Errorf("marshaling span %s: %w", span.SpanID, err)
	}

	now := float64(nowFunc().UnixNano()) / 1e9

	if err := s.backend.SetWithTTL(ctx, keySpan(span.SpanID), string(serialized), s.ttl); err != nil {
		return fmt.Errorf("storing span %s: %w", span.SpanID, err)
	}
	if err := s.backend.SetAdd(ctx, keyTraceSpanSet(span.TraceID), span.SpanID); err != nil {
		return fmt.Errorf("indexing span %s into trace %s: %w", span.SpanID, span.TraceID, err)
	}
	if err := s.backend.Expire(ctx, keyTraceSpanSet(span.TraceID), s.ttl); err != nil {
		return fmt.Errorf("refreshing trace set ttl %s: %w", span.TraceID, err)
	}
	if err := s.backend.SortedSetAdd(ctx, keyTraceIndex, span.TraceID, now); err != nil {
		return fmt.Errorf("indexing trace %s: %w", span.TraceID, err)
	}
	if err := s.backend.Expire(ctx, keyTraceIndex, s.ttl); err != nil {
		return fmt.Errorf("refreshing trace index ttl: %w", err)
	}
	if err := s.backend.ListPushRight(ctx, keyTraceSpans(span.TraceID), string(serialized)); err != nil {
		return fmt.Errorf("appending span %s to trace %s: %w", span.SpanID, span.TraceID, err)
	}
	if err := s.backend.Expire(ctx, keyTraceSpans(span.TraceID), s.ttl); err != nil {
		return fmt.Errorf("refreshing trace span list ttl %s: %w", span.TraceID, err)
	}
	if err := s.backend.SortedSetAdd(ctx, keySpanIndex, span.SpanID, now); err != nil {
		return fmt.Errorf("indexing span %s: %w", span.SpanID, err)
	}
	if err := s.backend.Expire(ctx, keySpanIndex, s.ttl); err != nil {
		return fmt.Errorf("refreshing span index ttl: %w", err)
	}

	return nil
}

// StoreLog persists log, generating a random log_id when one was not
// assigned by the normalizer (the path taken by records that skip the full
// OTLP envelope, per the data model).
func (s *Store) StoreLog(ctx context.Context, log *model.LogRecord) error {
	if log.LogID == "" {
		log.LogID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	serialized, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshaling log %s: %w", log.LogID, err)
	}

	if err := s.backend.SetWithTTL(ctx, keyLog(log.LogID), string(serialized), s.ttl); err != nil {
		return fmt.Errorf("storing log %s: %w", log.LogID, err)
	}
	if err := s.backend.SortedSetAdd(ctx, keyLogIndex, log.LogID, log.TimestampS); err != nil {
		return fmt.Errorf("indexing log %s: %w", log.LogID, err)
	}
	if err := s.backend.Expire(ctx, keyLogIndex, s.ttl); err != nil {
		return fmt.Errorf("refreshing log index ttl: %w", err)
	}

	if log.TraceID != "" {
		if err := s.backend.ListPushRight(ctx, keyTraceLogs(log.TraceID), log.LogID); err != nil {
			return fmt.Errorf("appending log %s to trace %s: %w", log.LogID, log.TraceID, err)
		}
		if err := s.backend.Expire(ctx, keyTraceLogs(log.TraceID), s.ttl); err != nil {
			return fmt.Errorf("refreshing trace log list ttl %s: %w", log.TraceID, err)
		}
	}

	return nil
}

// StoreMetric persists a metric data point, subject to the cardinality
// guard: once maxMetrics distinct names are admitted, any further new name
// is dropped and counted rather than stored. The guard's check-then-add
// sequence is intentionally racy across concurrent requests; see
// DESIGN.md.
func (s *Store) StoreMetric(ctx context.Context, point *model.MetricPoint) error {
	if point.Name == "" {
		return nil
	}

	admitted, err := s.backend.SetContains(ctx, keyMetricNames, point.Name)
	if err != nil {
		return fmt.Errorf("checking metric admission for %s: %w", point.Name, err)
	}

	if !admitted {
		cardinality, err := s.backend.SetCardinality(ctx, keyMetricNames)
		if err != nil {
			return fmt.Errorf("reading metric cardinality: %w", err)
		}
		if cardinality >= int64(s.maxMetrics) {
			if _, err := s.backend.Increment(ctx, keyMetricDroppedCount); err != nil {
				return fmt.Errorf("incrementing dropped metric count: %w", err)
			}
			if err := s.backend.Expire(ctx, keyMetricDroppedCount, s.ttl); err != nil {
				return fmt.Errorf("refreshing dropped metric count ttl: %w", err)
			}
			if err := s.backend.SetAdd(ctx, keyMetricDroppedNames, point.Name); err != nil {
				return fmt.Errorf("recording dropped metric name %s: %w", point.Name, err)
			}
			if err := s.backend.Expire(ctx, keyMetricDroppedNames, droppedNameTTL); err != nil {
				return fmt.Errorf("refreshing dropped metric names ttl: %w", err)
			}
			return nil
		}
	}

	serialized, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("marshaling metric %s: %w", point.Name, err)
	}

	if err := s.backend.SortedSetAdd(ctx, keyMetric(point.Name), string(serialized), point.TimestampS); err != nil {
		return fmt.Errorf("storing metric point %s: %w", point.Name, err)
	}
	if err := s.backend.Expire(ctx, keyMetric(point.Name), s.ttl); err != nil {
		return fmt.Errorf("refreshing metric ttl %s: %w", point.Name, err)
	}
	if err := s.backend.SetAdd(ctx, keyMetricNames, point.Name); err != nil {
		return fmt.Errorf("admitting metric name %s: %w", point.Name, err)
	}
	if err := s.backend.Expire(ctx, keyMetricNames, s.ttl); err != nil {
		return fmt.Errorf("refreshing metric names ttl: %w", err)
	}

	return nil
}

// Ping reports whether the underlying backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
