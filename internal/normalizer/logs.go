package normalizer

import (
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/stevelerner/tinyotel/pkg/model"
)

type otlpBody struct {
	StringValue *string `json:"stringValue"`
}

// otlpLogRecord is one OTLP LogRecord as it appears inside
// scopeLogs[].logRecords[].
type otlpLogRecord struct {
	TimeUnixNano   *json.RawMessage `json:"timeUnixNano"`
	TraceID        string           `json:"traceId"`
	SpanID         string           `json:"spanId"`
	Body           *otlpBody        `json:"body"`
	SeverityNumber int64            `json:"severityNumber"`
	SeverityText   string           `json:"severityText"`
	Attributes     []keyValue       `json:"attributes"`
}

type scopeLogs struct {
	LogRecords []otlpLogRecord `json:"logRecords"`
}

type resourceLogs struct {
	Resource  resource    `json:"resource"`
	ScopeLogs []scopeLogs `json:"scopeLogs"`
}

// logsEnvelope is the standard OTLP resourceLogs export request.
type logsEnvelope struct {
	ResourceLogs []resourceLogs `json:"resourceLogs"`
}

// bareLog is the simplified flat log shape used by lightweight producers
// (see original_source/bridge.py): snake_case fields, a plain float
// timestamp, no OTLP wrapper at all.
type bareLog struct {
	Timestamp   *float64               `json:"timestamp"`
	TraceID     string                 `json:"trace_id"`
	SpanID      string                 `json:"span_id"`
	Severity    string                 `json:"severity"`
	Message     string                 `json:"message"`
	ServiceName string                 `json:"service_name"`
	Attributes  map[string]interface{} `json:"attributes"`
}

// Logs decodes an OTLP/HTTP JSON logs export body into LogRecords. Three
// body shapes are tried in order: the full OTLP envelope, a JSON array of
// bare log objects, and a single bare log object.
func Logs(body []byte) []*model.LogRecord {
	var env logsEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.ResourceLogs) > 0 {
		return logsFromEnvelope(env)
	}

	var arr []bareLog
	if err := json.Unmarshal(body, &arr); err == nil && len(arr) > 0 {
		records := make([]*model.LogRecord, 0, len(arr))
		for _, l := range arr {
			records = append(records, bareLogToRecord(l))
		}
		return records
	}

	var single bareLog
	if err := json.Unmarshal(body, &single); err == nil && single.Message != "" {
		return []*model.LogRecord{bareLogToRecord(single)}
	}

	return nil
}

func logsFromEnvelope(env logsEnvelope) []*model.LogRecord {
	var records []*model.LogRecord
	for _, rl := range env.ResourceLogs {
		svc := serviceName(rl.Resource)
		for _, sl := range rl.ScopeLogs {
			for _, lr := range sl.LogRecords {
				records = append(records, logRecordFromOTLP(lr, svc))
			}
		}
	}
	return records
}

func logRecordFromOTLP(lr otlpLogRecord, svc string) *model.LogRecord {
	timestampS := float64(flexUint(lr.TimeUnixNano)) / 1e9

	rawMessage := ""
	if lr.Body != nil && lr.Body.StringValue != nil {
		rawMessage = *lr.Body.StringValue
	}

	severity := lr.SeverityText
	if severity == "" {
		severity = "INFO"
	}

	rec := &model.LogRecord{
		TimestampS:  timestampS,
		TraceID:     lr.TraceID,
		SpanID:      lr.SpanID,
		Severity:    severity,
		ServiceName: svc,
		Attributes:  decodeAttributes(lr.Attributes),
		Extra:       map[string]interface{}{},
	}
	applyStructuredMessage(rec, rawMessage)
	rec.LogID = generateLogID(timestampS, rec.Message)
	return rec
}

func bareLogToRecord(l bareLog) *model.LogRecord {
	timestampS := 0.0
	if l.Timestamp != nil {
		timestampS = *l.Timestamp
	}

	severity := l.Severity
	if severity == "" {
		severity = "INFO"
	}

	svc := l.ServiceName
	if svc == "" {
		svc = "unknown"
	}

	rec := &model.LogRecord{
		TimestampS:  timestampS,
		TraceID:     l.TraceID,
		SpanID:      l.SpanID,
		Severity:    severity,
		Message:     l.Message,
		ServiceName: svc,
		Attributes:  l.Attributes,
		Extra:       map[string]interface{}{},
	}
	// LogID is left empty: the storage layer generates a random id for
	// records that didn't come through the full OTLP path (spec.md §3),
	// mirroring tinyolly_redis_storage.py's store_log uuid4 fallback.
	return rec
}

// applyStructuredMessage implements spec.md §4.1/§9's structured-message
// merge. When the raw body string parses as a JSON object, `message` is
// taken from its "message" key (falling back to the raw string), and every
// other key is merged onto the record. Per spec.md §9's resolution of the
// open question, keys naming the reserved fields are left out of the merge
// so user keys can never clobber trace_id/span_id/severity/service_name/
// timestamp_s -- except message, which always comes from the parsed body.
func applyStructuredMessage(rec *model.LogRecord, rawMessage string) {
	rec.Message = rawMessage

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(rawMessage), &parsed); err != nil {
		return
	}

	if msg, ok := parsed["message"].(string); ok {
		rec.Message = msg
	}
	for k, v := range parsed {
		switch k {
		case "message", "trace_id", "span_id", "severity", "service_name", "timestamp_s":
			continue
		}
		rec.Extra[k] = v
	}
}

// generateLogID mirrors original_source's
// f"{int(timestamp*1000)}-{hash(message) & 0xFFFFFF}". Go has no stable
// hash() builtin (Python's is salted per-process); fnv.New32a gives a
// real, stable 32-bit hash, truncated to 24 bits to keep the same 6-hex-
// digit width. Collisions are acceptable: spec.md §9 only requires the id
// to be store-scoped, not globally unique.
func generateLogID(timestampS float64, message string) string {
	h := fnv.New32a()
	h.Write([]byte(message))
	shortHash := h.Sum32() & 0xFFFFFF
	return fmt.Sprintf("%d-%06x", int64(timestampS*1000), shortHash)
}
