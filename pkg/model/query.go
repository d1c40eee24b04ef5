package model

// IngestResponse is the JSON body returned by the three ingest endpoints.
type IngestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// TraceSummary is the per-trace row returned by GET /api/traces. The
// RootSpan* fields are alias-resolved HTTP attributes pulled off the
// trace's root span, following tinyolly_redis_storage.py's get_trace_summary.
type TraceSummary struct {
	TraceID             string      `json:"trace_id"`
	SpanCount           int         `json:"span_count"`
	DurationMs          float64     `json:"duration_ms"`
	StartTime           uint64      `json:"start_time"`
	RootSpanName        string      `json:"root_span_name"`
	RootSpanMethod      interface{} `json:"root_span_method,omitempty"`
	RootSpanRoute       interface{} `json:"root_span_route,omitempty"`
	RootSpanStatusCode  interface{} `json:"root_span_status_code,omitempty"`
	RootSpanStatus      Status      `json:"root_span_status"`
	RootSpanServerName  interface{} `json:"root_span_server_name,omitempty"`
	RootSpanScheme      interface{} `json:"root_span_scheme,omitempty"`
	RootSpanHost        interface{} `json:"root_span_host,omitempty"`
	RootSpanTarget      interface{} `json:"root_span_target,omitempty"`
	RootSpanURL         interface{} `json:"root_span_url,omitempty"`
}

// FullTrace is the response for GET /api/traces/{trace_id}.
type FullTrace struct {
	TraceID   string        `json:"trace_id"`
	Spans     []*SpanRecord `json:"spans"`
	SpanCount int           `json:"span_count"`
}

// SpanDetails is the per-span row returned by GET /api/spans.
type SpanDetails struct {
	SpanID      string      `json:"span_id"`
	TraceID     string      `json:"trace_id"`
	Name        string      `json:"name"`
	StartTime   uint64      `json:"start_time"`
	DurationMs  float64     `json:"duration_ms"`
	Method      interface{} `json:"method,omitempty"`
	Route       interface{} `json:"route,omitempty"`
	StatusCode  interface{} `json:"status_code,omitempty"`
	Status      Status      `json:"status"`
	ServerName  interface{} `json:"server_name,omitempty"`
	Scheme      interface{} `json:"scheme,omitempty"`
	Host        interface{} `json:"host,omitempty"`
	Target      interface{} `json:"target,omitempty"`
	URL         interface{} `json:"url,omitempty"`
}

// CardinalityStats reports metric-name admission state for GET /api/metrics.
type CardinalityStats struct {
	Current      int      `json:"current"`
	Max          int      `json:"max"`
	DroppedCount int64    `json:"dropped_count"`
	DroppedNames []string `json:"dropped_names"`
}

// MetricNamesResponse is the response for GET /api/metrics.
type MetricNamesResponse struct {
	Names       []string         `json:"names"`
	Cardinality CardinalityStats `json:"cardinality"`
}

// MetricDataResponse is the response for GET /api/metrics/{name}.
type MetricDataResponse struct {
	Name string        `json:"name"`
	Data []MetricPoint `json:"data"`
}

// ServiceGraphNode is one node in the derived service-dependency graph.
type ServiceGraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ServiceGraphEdge is one parent-service -> child-service edge.
type ServiceGraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  int    `json:"value"`
}

// ServiceGraph is the response for GET /api/service-map.
type ServiceGraph struct {
	Nodes []ServiceGraphNode `json:"nodes"`
	Edges []ServiceGraphEdge `json:"edges"`
}

// Stats is the response for GET /api/stats.
type Stats struct {
	Traces         int64 `json:"traces"`
	Spans          int64 `json:"spans"`
	Logs           int64 `json:"logs"`
	Metrics        int64 `json:"metrics"`
	MetricsMax     int   `json:"metrics_max"`
	MetricsDropped int64 `json:"metrics_dropped"`
}
