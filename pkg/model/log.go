package model

import "encoding/json"

// LogRecord is the normalized form of a single OTLP log record. Any
// top-level fields merged from a structured JSON body live on Extra so
// arbitrary keys survive a round trip through JSON.
type LogRecord struct {
	LogID       string                 `json:"log_id"`
	TimestampS  float64                `json:"timestamp_s"`
	TraceID     string                 `json:"trace_id,omitempty"`
	SpanID      string                 `json:"span_id,omitempty"`
	Severity    string                 `json:"severity"`
	Message     string                 `json:"message"`
	ServiceName string                 `json:"service_name"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	Extra       map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Extra alongside the named fields so a structured
// body's extra keys (order_id, step, ...) appear at the top level of the
// stored and served record, exactly as the source's dict-merge behavior
// produced in Python.
func (l *LogRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(l.Extra)+8)
	for k, v := range l.Extra {
		out[k] = v
	}
	out["log_id"] = l.LogID
	out["timestamp_s"] = l.TimestampS
	if l.TraceID != "" {
		out["trace_id"] = l.TraceID
	}
	if l.SpanID != "" {
		out["span_id"] = l.SpanID
	}
	out["severity"] = l.Severity
	out["message"] = l.Message
	out["service_name"] = l.ServiceName
	if l.Attributes != nil {
		out["attributes"] = l.Attributes
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON: named fields are lifted out,
// everything else is kept in Extra.
func (l *LogRecord) UnmarshalJSON(data []byte) error {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Extra = map[string]interface{}{}
	for k, v := range raw {
		switch k {
		case "log_id":
			l.LogID, _ = v.(string)
		case "timestamp_s":
			l.TimestampS = toFloat(v)
		case "trace_id":
			l.TraceID, _ = v.(string)
		case "span_id":
			l.SpanID, _ = v.(string)
		case "severity":
			l.Severity, _ = v.(string)
		case "message":
			l.Message, _ = v.(string)
		case "service_name":
			l.ServiceName, _ = v.(string)
		case "attributes":
			if m, ok := v.(map[string]interface{}); ok {
				l.Attributes = m
			}
		default:
			l.Extra[k] = v
		}
	}
	return nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}
