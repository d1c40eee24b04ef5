package normalizer

import (
	"testing"

	"github.com/stevelerner/tinyotel/pkg/model"
)

func TestMetricsSumMonotonicIsCounter(t *testing.T) {
	body := []byte(`{"resourceMetrics":[{"resource":{},"scopeMetrics":[{"metrics":[
 {"name":"requests_total","sum":{"isMonotonic":true,"dataPoints":[{"timeUnixNano":"1000000000","asInt":"5"}]}}]}]}]}`)

	points := Metrics(body)
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	if points[0].Type != model.MetricTypeCounter {
		t.Fatalf("type = %q, want counter", points[0].Type)
	}
	if points[0].Value != 5 {
		t.Fatalf("value = %v, want 5", points[0].Value)
	}
}

func TestMetricsSumNonMonotonicIsGauge(t *testing.T) {
	body := []byte(`{"resourceMetrics":[{"resource":{},"scopeMetrics":[{"metrics":[
 {"name":"queue_depth","sum":{"isMonotonic":false,"dataPoints":[{"asDouble":2.5}]}}]}]}]}`)

	points := Metrics(body)
	if len(points) != 1 || points[0].Type != model.MetricTypeGauge {
		t.Fatalf("got %+v, want one gauge point", points)
	}
}

func TestMetricsGauge(t *testing.T) {
	body := []byte(`{"resourceMetrics":[{"resource":{},"scopeMetrics":[{"metrics":[
 {"name":"temp","gauge":{"dataPoints":[{"asDouble":98.6}]}}]}]}]}`)

	points := Metrics(body)
	if len(points) != 1 || points[0].Type != model.MetricTypeGauge || points[0].Value != 98.6 {
		t.Fatalf("got %+v", points)
	}
}

// TestMetricsHistogramBucketAlignment mirrors spec scenario S2.
func TestMetricsHistogramBucketAlignment(t *testing.T) {
	body := []byte(`{"resourceMetrics":[{"resource":{},"scopeMetrics":[{"metrics":[
 {"name":"foo","histogram":{"dataPoints":[{
   "sum":100,"count":10,
   "explicitBounds":[5,10,20],
   "bucketCounts":[1,2,3,4]}]}}]}]}]}`)

	points := Metrics(body)
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	p := points[0]
	if p.Type != model.MetricTypeHistogram {
		t.Fatalf("type = %q, want histogram", p.Type)
	}
	if p.Value != 10 {
		t.Fatalf("value = %v, want 10 (sum/count)", p.Value)
	}
	if len(p.Histogram.Buckets) != 4 {
		t.Fatalf("got %d buckets, want 4", len(p.Histogram.Buckets))
	}
	wantBounds := []float64{5, 10, 20}
	for i, b := range wantBounds {
		if p.Histogram.Buckets[i].Bound == nil || *p.Histogram.Buckets[i].Bound != b {
			t.Fatalf("bucket %d bound = %v, want %v", i, p.Histogram.Buckets[i].Bound, b)
		}
	}
	last := p.Histogram.Buckets[3]
	if last.Bound != nil {
		t.Fatalf("last bucket bound = %v, want nil (+Inf)", *last.Bound)
	}
	if last.Count != 4 {
		t.Fatalf("last bucket count = %d, want 4", last.Count)
	}
}

func TestMetricsHistogramZeroCountUsesSum(t *testing.T) {
	body := []byte(`{"resourceMetrics":[{"resource":{},"scopeMetrics":[{"metrics":[
 {"name":"foo","histogram":{"dataPoints":[{"sum":7,"count":0,"bucketCounts":[0]}]}}]}]}]}`)

	points := Metrics(body)
	if len(points) != 1 || points[0].Value != 7 {
		t.Fatalf("got %+v, want value=7", points)
	}
}

func TestMetricsBareArrayShape(t *testing.T) {
	body := []byte(`{"metrics":[{"name":"foo","value":3,"timestamp":1.0}]}`)

	points := Metrics(body)
	if len(points) != 1 || points[0].Name != "foo" || points[0].Value != 3 {
		t.Fatalf("got %+v", points)
	}
}

func TestMetricsSingleBare(t *testing.T) {
	body := []byte(`{"name":"foo","value":3}`)

	points := Metrics(body)
	if len(points) != 1 || points[0].Name != "foo" {
		t.Fatalf("got %+v", points)
	}
}
