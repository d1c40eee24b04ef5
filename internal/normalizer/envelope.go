package normalizer

import (
	"encoding/json"
	"strconv"
)

// The types below decode the OTLP/HTTP JSON envelope by hand rather than via
// go.opentelemetry.io/proto/otlp + protojson. OTLP/JSON encodes the
// protobuf `bytes` fields trace_id/span_id as hex strings (a documented
// exception in the OTLP JSON mapping), while generic protojson over the
// generated message types encodes/decodes `bytes` as base64 — running the
// hex ids spec.md uses through protojson would silently corrupt every trace
// and span id. See DESIGN.md for the full rationale.

// anyValue is OTLP's tagged scalar value wrapper. Only one field is
// populated; the first non-nil field in string/int/bool/double order is the
// decoded value, matching spec.md §4.1's decode rule.
type anyValue struct {
	StringValue *string          `json:"stringValue,omitempty"`
	IntValue    *json.RawMessage `json:"intValue,omitempty"`
	BoolValue   *bool            `json:"boolValue,omitempty"`
	DoubleValue *float64         `json:"doubleValue,omitempty"`
}

// scalar decodes the first present typed field to a Go scalar
// (string | int64 | bool | float64), or nil if the value is empty.
func (v *anyValue) scalar() interface{} {
	if v == nil {
		return nil
	}
	if v.StringValue != nil {
		return *v.StringValue
	}
	if v.IntValue != nil {
		if n, ok := parseFlexInt(*v.IntValue); ok {
			return n
		}
	}
	if v.BoolValue != nil {
		return *v.BoolValue
	}
	if v.DoubleValue != nil {
		return *v.DoubleValue
	}
	return nil
}

// stringLabel decodes a value for use as a metric label: strings pass
// through, intValue is stringified, everything else is ignored per
// spec.md §4.1.
func (v *anyValue) stringLabel() (string, bool) {
	if v == nil {
		return "", false
	}
	if v.StringValue != nil {
		return *v.StringValue, true
	}
	if v.IntValue != nil {
		if n, ok := parseFlexInt(*v.IntValue); ok {
			return strconv.FormatInt(n, 10), true
		}
	}
	return "", false
}

// parseFlexInt parses a JSON int64 that may be encoded as either a JSON
// number or a JSON string (the protobuf/JSON mapping for int64 uses
// strings to avoid precision loss in JS, but lenient producers send plain
// numbers too).
func parseFlexInt(raw json.RawMessage) (int64, bool) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		n, err := strconv.ParseInt(asString, 10, 64)
		return n, err == nil
	}
	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber, true
	}
	return 0, false
}

// parseFlexUint parses a uint64 that may arrive as a JSON string or number,
// as with parseFlexInt but unsigned (used for *TimeUnixNano fields).
func parseFlexUint(raw json.RawMessage) (uint64, bool) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		n, err := strconv.ParseUint(asString, 10, 64)
		return n, err == nil
	}
	var asNumber uint64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber, true
	}
	return 0, false
}

func flexUint(raw *json.RawMessage) uint64 {
	if raw == nil {
		return 0
	}
	n, _ := parseFlexUint(*raw)
	return n
}

// keyValue is one OTLP attribute: a key plus a tagged scalar value.
type keyValue struct {
	Key   string   `json:"key"`
	Value anyValue `json:"value"`
}

// decodeAttributes flattens an OTLP attribute array to a key->scalar map.
func decodeAttributes(attrs []keyValue) map[string]interface{} {
	if len(attrs) == 0 {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(attrs))
	for _, kv := range attrs {
		out[kv.Key] = kv.Value.scalar()
	}
	return out
}

// decodeLabels flattens an OTLP attribute array to a key->string map, for
// metric data point labels.
func decodeLabels(attrs []keyValue) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		if s, ok := kv.Value.stringLabel(); ok {
			out[kv.Key] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// resource is the OTLP Resource message: a bag of attributes describing the
// producing entity.
type resource struct {
	Attributes []keyValue `json:"attributes"`
}

// serviceName extracts service.name from a resource's attributes, defaulting
// to "unknown" per spec.md §3.
func serviceName(r resource) string {
	for _, kv := range r.Attributes {
		if kv.Key != "service.name" {
			continue
		}
		if s, ok := kv.Value.scalar().(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}
