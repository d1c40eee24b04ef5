// Package model defines the internal record shapes the collector stores and
// serves, independent of the OTLP wire envelope they were decoded from.
package model

// Status mirrors the OTLP span status: a code plus an optional message.
type Status struct {
	Code    int64  `json:"code"`
	Message string `json:"message,omitempty"`
}

// SpanRecord is the normalized form of a single OTLP span.
type SpanRecord struct {
	TraceID       string                 `json:"trace_id"`
	SpanID        string                 `json:"span_id"`
	ParentSpanID  string                 `json:"parent_span_id,omitempty"`
	Name          string                 `json:"name"`
	Kind          int64                  `json:"kind"`
	Status        Status                 `json:"status"`
	StartTimeNano uint64                 `json:"start_time_ns"`
	EndTimeNano   uint64                 `json:"end_time_ns"`
	Attributes    map[string]interface{} `json:"attributes"`
	ServiceName   string                 `json:"service_name"`
}

// DurationNanos returns end-start clamped to zero, per spec.md's invariant
// that end < start (a malformed or clock-skewed span) never yields a
// negative duration.
func (s *SpanRecord) DurationNanos() uint64 {
	if s.EndTimeNano <= s.StartTimeNano {
		return 0
	}
	return s.EndTimeNano - s.StartTimeNano
}

// IsRoot reports whether the span has no parent.
func (s *SpanRecord) IsRoot() bool {
	return s.ParentSpanID == ""
}
