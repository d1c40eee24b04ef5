package normalizer

import (
	"encoding/json"

	"github.com/stevelerner/tinyotel/pkg/model"
)

// otlpSpan is one OTLP Span as it appears inside scopeSpans[].spans[].
type otlpSpan struct {
	TraceID           string           `json:"traceId"`
	SpanID            string           `json:"spanId"`
	ParentSpanID      string           `json:"parentSpanId"`
	Name              string           `json:"name"`
	Kind              int64            `json:"kind"`
	StartTimeUnixNano *json.RawMessage `json:"startTimeUnixNano"`
	EndTimeUnixNano   *json.RawMessage `json:"endTimeUnixNano"`
	Attributes        []keyValue       `json:"attributes"`
	Status            *otlpStatus      `json:"status"`
}

type otlpStatus struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type scopeSpans struct {
	Spans []otlpSpan `json:"spans"`
}

type resourceSpans struct {
	Resource   resource     `json:"resource"`
	ScopeSpans []scopeSpans `json:"scopeSpans"`
}

// tracesEnvelope is the standard OTLP resourceSpans export request.
type tracesEnvelope struct {
	ResourceSpans []resourceSpans `json:"resourceSpans"`
}

// bareSpans is the simplified `{"spans": [...]}` shape used by
// lightweight producers (see original_source/bridge.py) that skip the
// resourceSpans/scopeSpans wrapper entirely.
type bareSpans struct {
	Spans []otlpSpan `json:"spans"`
}

// Traces decodes an OTLP/HTTP JSON traces export body into SpanRecords.
// Spans missing a trace or span id are silently dropped, per spec.md §3.
// Three body shapes are tried in order: the full OTLP envelope, a bare
// {"spans": [...]} list, and a single bare span object.
func Traces(body []byte) []*model.SpanRecord {
	var env tracesEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.ResourceSpans) > 0 {
		return tracesFromEnvelope(env)
	}

	var bare bareSpans
	if err := json.Unmarshal(body, &bare); err == nil && len(bare.Spans) > 0 {
		return spansToRecords(bare.Spans, "unknown")
	}

	var single otlpSpan
	if err := json.Unmarshal(body, &single); err == nil && single.TraceID != "" && single.SpanID != "" {
		return spansToRecords([]otlpSpan{single}, "unknown")
	}

	return nil
}

func tracesFromEnvelope(env tracesEnvelope) []*model.SpanRecord {
	var records []*model.SpanRecord
	for _, rs := range env.ResourceSpans {
		svc := serviceName(rs.Resource)
		for _, ss := range rs.ScopeSpans {
			records = append(records, spansToRecords(ss.Spans, svc)...)
		}
	}
	return records
}

func spansToRecords(spans []otlpSpan, svc string) []*model.SpanRecord {
	records := make([]*model.SpanRecord, 0, len(spans))
	for _, s := range spans {
		if s.TraceID == "" || s.SpanID == "" {
			continue
		}

		rec := &model.SpanRecord{
			TraceID:       s.TraceID,
			SpanID:        s.SpanID,
			ParentSpanID:  s.ParentSpanID,
			Name:          s.Name,
			Kind:          s.Kind,
			StartTimeNano: flexUint(s.StartTimeUnixNano),
			EndTimeNano:   flexUint(s.EndTimeUnixNano),
			Attributes:    decodeAttributes(s.Attributes),
			ServiceName:   svc,
		}
		if s.Status != nil {
			rec.Status = model.Status{Code: s.Status.Code, Message: s.Status.Message}
		}
		records = append(records, rec)
	}
	return records
}
