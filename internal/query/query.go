// Package query implements trace reconstruction, log correlation, metric
// time-series, and service-graph derivation over a store.Backend.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/stevelerner/tinyotel/internal/config"
	"github.com/stevelerner/tinyotel/internal/store"
	"github.com/stevelerner/tinyotel/pkg/model"
)

// ErrTraceNotFound is returned by FullTrace when the trace has no live
// spans (either it never existed or its keys have expired).
var ErrTraceNotFound = errors.New("trace not found")

const (
	keyTraceIndex         = "trace_index"
	keySpanIndex          = "span_index"
	keyLogIndex           = "log_index"
	keyMetricNames        = "metric_names"
	keyMetricDroppedNames = "metric_dropped_names"
	keyMetricDroppedCount = "metric_dropped_count"
)

func keyTraceSpans(traceID string) string { return "trace:" + traceID + ":spans" }
func keyTraceLogs(traceID string) string  { return "trace:" + traceID + ":logs" }
func keySpan(spanID string) string        { return "span:" + spanID }
func keyLog(logID string) string          { return "log:" + logID }
func keyMetric(name string) string        { return "metric:" + name }

// Query is the read layer over a Backend. It holds no mutable state of its
// own; every operation re-derives its answer from the backend on each call.
type Query struct {
	backend Backend
	aliases config.HTTPAliases
}

// Backend is the subset of store.Backend the query layer reads from.
type Backend = store.Backend

// New creates a Query over backend using aliases to resolve well-known HTTP
// attributes off span attribute maps.
func New(backend Backend, aliases config.HTTPAliases) *Query {
	return &Query{backend: backend, aliases: aliases}
}

// RecentTraces returns up to limit trace summaries, most recent first.
func (q *Query) RecentTraces(ctx context.Context, limit int64) ([]model.TraceSummary, error) {
	traceIDs, err := q.backend.SortedSetRangeByRankDesc(ctx, keyTraceIndex, 0, limit-1)
	if err != nil {
		return nil, fmt.Errorf("reading trace index: %w", err)
	}

	summaries := make([]model.TraceSummary, 0, len(traceIDs))
	for _, tid := range traceIDs {
		spans, err := q.loadTraceSpans(ctx, tid)
		if err != nil {
			return nil, err
		}
		if len(spans) == 0 {
			continue
		}
		summaries = append(summaries, q.summarize(tid, spans))
	}
	return summaries, nil
}

// FullTrace returns every span for traceID, sorted ascending by start time.
func (q *Query) FullTrace(ctx context.Context, traceID string) (*model.FullTrace, error) {
	spans, err := q.loadTraceSpans(ctx, traceID)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, ErrTraceNotFound
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].StartTimeNano < spans[j].StartTimeNano })

	return &model.FullTrace{TraceID: traceID, Spans: spans, SpanCount: len(spans)}, nil
}

// RecentSpans returns up to limit spans from the global span index, most
// recent first, each enriched with decoded HTTP attributes.
func (q *Query) RecentSpans(ctx context.Context, limit int64) ([]model.SpanDetails, error) {
	spanIDs, err := q.backend.SortedSetRangeByRankDesc(ctx, keySpanIndex, 0, limit-1)
	if err != nil {
		return nil, fmt.Errorf("reading span index: %w", err)
	}

	details := make([]model.SpanDetails, 0, len(spanIDs))
	for _, sid := range spanIDs {
		raw, ok, err := q.backend.Get(ctx, keySpan(sid))
		if err != nil {
			return nil, fmt.Errorf("reading span %s: %w", sid, err)
		}
		if !ok {
			continue
		}
		var span model.SpanRecord
		if err := json.Unmarshal([]byte(raw), &span); err != nil {
			continue
		}
		details = append(details, q.spanDetails(&span))
	}
	return details, nil
}

// Logs returns up to limit logs. When traceID is non-empty, it reads the
// trace's log list in stored order; otherwise it reads the global log
// index, most recent first.
func (q *Query) Logs(ctx context.Context, traceID string, limit int64) ([]*model.LogRecord, error) {
	var logIDs []string
	var err error
	if traceID != "" {
		logIDs, err = q.backend.ListRange(ctx, keyTraceLogs(traceID), 0, limit-1)
	} else {
		logIDs, err = q.backend.SortedSetRangeByRankDesc(ctx, keyLogIndex, 0, limit-1)
	}
	if err != nil {
		return nil, fmt.Errorf("reading log ids: %w", err)
	}

	logs := make([]*model.LogRecord, 0, len(logIDs))
	for _, lid := range logIDs {
		raw, ok, err := q.backend.Get(ctx, keyLog(lid))
		if err != nil {
			return nil, fmt.Errorf("reading log %s: %w", lid, err)
		}
		if !ok {
			continue
		}
		var log model.LogRecord
		if err := json.Unmarshal([]byte(raw), &log); err != nil {
			continue
		}
		logs = append(logs, &log)
	}
	return logs, nil
}

// MetricNames returns every admitted metric name, sorted lexicographically
// (optionally truncated to limit), plus cardinality stats.
func (q *Query) MetricNames(ctx context.Context, limit int, maxCardinality int) (*model.MetricNamesResponse, error) {
	names, err := q.backend.SetMembers(ctx, keyMetricNames)
	if err != nil {
		return nil, fmt.Errorf("reading metric names: %w", err)
	}
	sort.Strings(names)
	current := len(names)
	if limit > 0 && limit < len(names) {
		names = names[:limit]
	}

	droppedNames, err := q.backend.SetMembers(ctx, keyMetricDroppedNames)
	if err != nil {
		return nil, fmt.Errorf("reading dropped metric names: %w", err)
	}
	sort.Strings(droppedNames)

	droppedCount, err := q.droppedCount(ctx, keyMetricDroppedCount)
	if err != nil {
		return nil, err
	}

	return &model.MetricNamesResponse{
		Names: names,
		Cardinality: model.CardinalityStats{
			Current:      current,
			Max:          maxCardinality,
			DroppedCount: droppedCount,
			DroppedNames: droppedNames,
		},
	}, nil
}

// droppedCount reads the dropped-metric counter, treating an absent/expired
// key as zero rather than an error.
func (q *Query) droppedCount(ctx context.Context, key string) (int64, error) {
	raw, ok, err := q.backend.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("reading dropped metric count: %w", err)
	}
	if !ok {
		return 0, nil
	}
	var n int64
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, nil
	}
	return n, nil
}

// MetricData returns the data points for name with timestamp_s in
// [start, end]. A zero end defaults to now; a zero start defaults to
// 600 seconds before end.
func (q *Query) MetricData(ctx context.Context, name string, start, end float64) (*model.MetricDataResponse, error) {
	if end == 0 {
		end = float64(time.Now().Unix())
	}
	if start == 0 {
		start = end - 600
	}

	raw, err := q.backend.SortedSetRangeByScore(ctx, keyMetric(name), start, end)
	if err != nil {
		return nil, fmt.Errorf("reading metric data for %s: %w", name, err)
	}

	points := make([]model.MetricPoint, 0, len(raw))
	for _, r := range raw {
		var p model.MetricPoint
		if err := json.Unmarshal([]byte(r), &p); err != nil {
			continue
		}
		points = append(points, p)
	}

	return &model.MetricDataResponse{Name: name, Data: points}, nil
}

// ServiceGraph derives the service-dependency graph from the last limit
// traces: every span contributes a node for its service_name, and every
// parent->child span pair crossing a service boundary (excluding
// "unknown") contributes (or increments) an edge.
func (q *Query) ServiceGraph(ctx context.Context, limit int64) (*model.ServiceGraph, error) {
	traceIDs, err := q.backend.SortedSetRangeByRankDesc(ctx, keyTraceIndex, 0, limit-1)
	if err != nil {
		return nil, fmt.Errorf("reading trace index: %w", err)
	}

	nodes := map[string]struct{}{}
	edges := map[[2]string]int{}

	for _, tid := range traceIDs {
		spans, err := q.loadTraceSpans(ctx, tid)
		if err != nil {
			return nil, err
		}

		bySpanID := make(map[string]*model.SpanRecord, len(spans))
		for _, s := range spans {
			bySpanID[s.SpanID] = s
		}

		for _, s := range spans {
			if s.ServiceName != "" {
				nodes[s.ServiceName] = struct{}{}
			}
			parent, ok := bySpanID[s.ParentSpanID]
			if !ok || parent.ServiceName == s.ServiceName {
				continue
			}
			if parent.ServiceName == "unknown" || s.ServiceName == "unknown" {
				continue
			}
			edges[[2]string{parent.ServiceName, s.ServiceName}]++
		}
	}

	graph := &model.ServiceGraph{
		Nodes: make([]model.ServiceGraphNode, 0, len(nodes)),
		Edges: make([]model.ServiceGraphEdge, 0, len(edges)),
	}
	nodeNames := make([]string, 0, len(nodes))
	for n := range nodes {
		nodeNames = append(nodeNames, n)
	}
	sort.Strings(nodeNames)
	for _, n := range nodeNames {
		graph.Nodes = append(graph.Nodes, model.ServiceGraphNode{ID: n, Label: n})
	}
	for pair, value := range edges {
		graph.Edges = append(graph.Edges, model.ServiceGraphEdge{Source: pair[0], Target: pair[1], Value: value})
	}
	sort.Slice(graph.Edges, func(i, j int) bool {
		if graph.Edges[i].Source != graph.Edges[j].Source {
			return graph.Edges[i].Source < graph.Edges[j].Source
		}
		return graph.Edges[i].Target < graph.Edges[j].Target
	})

	return graph, nil
}

// Stats reports global counts per spec.md §4.4.
func (q *Query) Stats(ctx context.Context, maxCardinality int) (*model.Stats, error) {
	traces, err := q.backend.SortedSetCardinality(ctx, keyTraceIndex)
	if err != nil {
		return nil, fmt.Errorf("counting traces: %w", err)
	}
	spans, err := q.backend.SortedSetCardinality(ctx, keySpanIndex)
	if err != nil {
		return nil, fmt.Errorf("counting spans: %w", err)
	}
	logs, err := q.backend.SortedSetCardinality(ctx, keyLogIndex)
	if err != nil {
		return nil, fmt.Errorf("counting logs: %w", err)
	}
	metrics, err := q.backend.SetCardinality(ctx, keyMetricNames)
	if err != nil {
		return nil, fmt.Errorf("counting metric names: %w", err)
	}
	dropped, err := q.droppedCount(ctx, keyMetricDroppedCount)
	if err != nil {
		return nil, err
	}

	return &model.Stats{
		Traces:         traces,
		Spans:          spans,
		Logs:           logs,
		Metrics:        metrics,
		MetricsMax:     maxCardinality,
		MetricsDropped: dropped,
	}, nil
}

func (q *Query) loadTraceSpans(ctx context.Context, traceID string) ([]*model.SpanRecord, error) {
	raw, err := q.backend.ListRange(ctx, keyTraceSpans(traceID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("reading spans for trace %s: %w", traceID, err)
	}

	spans := make([]*model.SpanRecord, 0, len(raw))
	for _, r := range raw {
		var s model.SpanRecord
		if err := json.Unmarshal([]byte(r), &s); err != nil {
			continue
		}
		spans = append(spans, &s)
	}
	return spans, nil
}

func (q *Query) summarize(traceID string, spans []*model.SpanRecord) model.TraceSummary {
	root := spans[0]
	for _, s := range spans {
		if s.IsRoot() {
			root = s
			break
		}
	}

	start := spans[0].StartTimeNano
	end := spans[0].EndTimeNano
	for _, s := range spans[1:] {
		if s.StartTimeNano < start {
			start = s.StartTimeNano
		}
		if s.EndTimeNano > end {
			end = s.EndTimeNano
		}
	}

	durationMs := 0.0
	if end > start {
		durationMs = float64(end-start) / 1e6
	}

	method, _ := resolveAlias(root.Attributes, q.aliases.Method)
	route, _ := resolveAlias(root.Attributes, q.aliases.Route)
	statusCode, _ := resolveAlias(root.Attributes, q.aliases.StatusCode)
	serverName, _ := resolveAlias(root.Attributes, q.aliases.ServerName)
	scheme, _ := resolveAlias(root.Attributes, q.aliases.Scheme)
	host, _ := resolveAlias(root.Attributes, q.aliases.Host)
	target, _ := resolveAlias(root.Attributes, q.aliases.Target)
	url, _ := resolveAlias(root.Attributes, q.aliases.URL)

	return model.TraceSummary{
		TraceID:            traceID,
		SpanCount:          len(spans),
		DurationMs:         durationMs,
		StartTime:          start,
		RootSpanName:       root.Name,
		RootSpanMethod:     method,
		RootSpanRoute:      route,
		RootSpanStatusCode: statusCode,
		RootSpanStatus:     root.Status,
		RootSpanServerName: serverName,
		RootSpanScheme:     scheme,
		RootSpanHost:       host,
		RootSpanTarget:     target,
		RootSpanURL:        url,
	}
}

func (q *Query) spanDetails(span *model.SpanRecord) model.SpanDetails {
	method, _ := resolveAlias(span.Attributes, q.aliases.Method)
	route, _ := resolveAlias(span.Attributes, q.aliases.Route)
	statusCode, _ := resolveAlias(span.Attributes, q.aliases.StatusCode)
	serverName, _ := resolveAlias(span.Attributes, q.aliases.ServerName)
	scheme, _ := resolveAlias(span.Attributes, q.aliases.Scheme)
	host, _ := resolveAlias(span.Attributes, q.aliases.Host)
	target, _ := resolveAlias(span.Attributes, q.aliases.Target)
	url, _ := resolveAlias(span.Attributes, q.aliases.URL)

	return model.SpanDetails{
		SpanID:     span.SpanID,
		TraceID:    span.TraceID,
		Name:       span.Name,
		StartTime:  span.StartTimeNano,
		DurationMs: float64(span.DurationNanos()) / 1e6,
		Method:     method,
		Route:      route,
		StatusCode: statusCode,
		Status:     span.Status,
		ServerName: serverName,
		Scheme:     scheme,
		Host:       host,
		Target:     target,
		URL:        url,
	}
}

// resolveAlias tries each alias key in order against attrs, returning the
// first present value.
func resolveAlias(attrs map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, key := range aliases {
		if v, ok := attrs[key]; ok {
			return v, true
		}
	}
	return nil, false
}
