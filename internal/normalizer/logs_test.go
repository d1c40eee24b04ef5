package normalizer

import "testing"

func TestLogsFullEnvelope(t *testing.T) {
	body := []byte(`{"resourceLogs":[{"resource":{"attributes":[{"key":"service.name","value":{"stringValue":"checkout"}}]},
"scopeLogs":[{"logRecords":[
 {"timeUnixNano":"1700000000500000000","traceId":"bb","spanId":"s1","body":{"stringValue":"hello"},"severityText":"INFO"}]}]}]}`)

	logs := Logs(body)
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	l := logs[0]
	if l.Message != "hello" || l.TraceID != "bb" || l.ServiceName != "checkout" {
		t.Fatalf("unexpected log: %+v", l)
	}
	if l.LogID == "" {
		t.Fatal("expected log_id to be computed for the OTLP envelope path")
	}
}

func TestLogsStructuredMessageMerge(t *testing.T) {
	body := []byte(`{"resourceLogs":[{"resource":{},"scopeLogs":[{"logRecords":[
 {"timeUnixNano":"1000000000","body":{"stringValue":"{\"message\":\"hi\",\"order_id\":42}"}}]}]}]}`)

	logs := Logs(body)
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	l := logs[0]
	if l.Message != "hi" {
		t.Fatalf("message = %q, want hi", l.Message)
	}
	if l.Extra["order_id"] != float64(42) {
		t.Fatalf("order_id = %v, want 42", l.Extra["order_id"])
	}
}

func TestLogsBareArray(t *testing.T) {
	body := []byte(`[{"timestamp":1700000000.5,"trace_id":"bb","message":"hello"}]`)

	logs := Logs(body)
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	if logs[0].LogID != "" {
		t.Fatal("expected bare-shape log to leave log_id for the storage layer to assign")
	}
	if logs[0].TraceID != "bb" || logs[0].Message != "hello" {
		t.Fatalf("unexpected log: %+v", logs[0])
	}
}

func TestLogsSingleBare(t *testing.T) {
	body := []byte(`{"timestamp":1700000000.5,"trace_id":"bb","message":"hello"}`)

	logs := Logs(body)
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
}

func TestLogsDefaultSeverity(t *testing.T) {
	body := []byte(`{"timestamp":1.0,"message":"m"}`)

	logs := Logs(body)
	if len(logs) != 1 || logs[0].Severity != "INFO" {
		t.Fatalf("got %+v, want severity=INFO", logs)
	}
}
