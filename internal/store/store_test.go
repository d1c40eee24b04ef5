package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stevelerner/tinyotel/internal/store/membackend"
	"github.com/stevelerner/tinyotel/pkg/model"
)

func TestStoreSpanIndexesTraceAndSpan(t *testing.T) {
	backend := membackend.New()
	s := New(backend, time.Minute, 1000)
	ctx := context.Background()

	span := &model.SpanRecord{TraceID: "t1", SpanID: "s1", Name: "GET /"}
	if err := s.StoreSpan(ctx, span); err != nil {
		t.Fatalf("StoreSpan: %v", err)
	}

	members, err := backend.SortedSetRangeByScore(ctx, keyTraceIndex, 0, 1<<62)
	if err != nil {
		t.Fatalf("reading trace index: %v", err)
	}
	if len(members) != 1 || members[0] != "t1" {
		t.Fatalf("trace index = %v, want [t1]", members)
	}

	spans, err := backend.ListRange(ctx, keyTraceSpans("t1"), 0, -1)
	if err != nil {
		t.Fatalf("reading trace spans: %v", err)
	}
	if len(spans) != 1 || !strings.Contains(spans[0], "s1") {
		t.Fatalf("trace spans = %v, want one entry containing s1", spans)
	}
}

func TestStoreSpanDropsMissingIDs(t *testing.T) {
	backend := membackend.New()
	s := New(backend, time.Minute, 1000)
	ctx := context.Background()

	if err := s.StoreSpan(ctx, &model.SpanRecord{TraceID: "", SpanID: "s1"}); err != nil {
		t.Fatalf("StoreSpan: %v", err)
	}

	count, err := backend.SortedSetCardinality(ctx, keyTraceIndex)
	if err != nil {
		t.Fatalf("reading trace index cardinality: %v", err)
	}
	if count != 0 {
		t.Fatalf("trace index cardinality = %d, want 0", count)
	}
}

func TestStoreLogGeneratesIDWhenAbsent(t *testing.T) {
	backend := membackend.New()
	s := New(backend, time.Minute, 1000)
	ctx := context.Background()

	log := &model.LogRecord{Message: "hello", TraceID: "t1"}
	if err := s.StoreLog(ctx, log); err != nil {
		t.Fatalf("StoreLog: %v", err)
	}
	if log.LogID == "" {
		t.Fatal("expected StoreLog to assign a log_id")
	}

	traceLogs, err := backend.ListRange(ctx, keyTraceLogs("t1"), 0, -1)
	if err != nil {
		t.Fatalf("reading trace logs: %v", err)
	}
	if len(traceLogs) != 1 || traceLogs[0] != log.LogID {
		t.Fatalf("trace logs = %v, want [%s]", traceLogs, log.LogID)
	}
}

func TestStoreMetricCardinalityGuard(t *testing.T) {
	backend := membackend.New()
	s := New(backend, time.Minute, 2)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		point := &model.MetricPoint{Name: name, Type: model.MetricTypeGauge, Value: 1}
		if err := s.StoreMetric(ctx, point); err != nil {
			t.Fatalf("StoreMetric(%s): %v", name, err)
		}
	}

	names, err := backend.SetMembers(ctx, keyMetricNames)
	if err != nil {
		t.Fatalf("reading metric names: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("admitted metric names = %v, want 2 entries", names)
	}

	dropped, err := backend.SetContains(ctx, keyMetricDroppedNames, "c")
	if err != nil {
		t.Fatalf("checking dropped names: %v", err)
	}
	if !dropped {
		t.Fatal("expected c to be recorded as dropped")
	}
}
