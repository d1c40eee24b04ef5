package model

// MetricType is the coarse OTLP metric kind the collector stores.
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// HistogramBucket is one explicit-bounds bucket. Bound is nil for the
// trailing +Inf bucket.
type HistogramBucket struct {
	Bound *float64 `json:"bound"`
	Count int64    `json:"count"`
}

// Histogram carries the full distribution for a histogram MetricPoint. It is
// only populated when MetricPoint.Type is MetricTypeHistogram.
type Histogram struct {
	Sum     float64           `json:"sum"`
	Count   int64             `json:"count"`
	Min     *float64          `json:"min,omitempty"`
	Max     *float64          `json:"max,omitempty"`
	Average float64           `json:"average"`
	Buckets []HistogramBucket `json:"buckets,omitempty"`
}

// MetricPoint is the normalized form of a single OTLP metric data point.
type MetricPoint struct {
	Name       string            `json:"name"`
	Type       MetricType        `json:"type"`
	TimestampS float64           `json:"timestamp_s"`
	Value      float64           `json:"value"`
	Labels     map[string]string `json:"labels,omitempty"`
	Histogram  *Histogram        `json:"histogram,omitempty"`
}
