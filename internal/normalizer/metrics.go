package normalizer

import (
	"encoding/json"

	"github.com/stevelerner/tinyotel/pkg/model"
)

// otlpNumberDataPoint covers both Sum and Gauge data points, which share a
// shape in OTLP JSON.
type otlpNumberDataPoint struct {
	TimeUnixNano *json.RawMessage `json:"timeUnixNano"`
	AsInt        *json.RawMessage `json:"asInt"`
	AsDouble     *float64         `json:"asDouble"`
	Attributes   []keyValue       `json:"attributes"`
}

type otlpHistogramDataPoint struct {
	TimeUnixNano   *json.RawMessage  `json:"timeUnixNano"`
	Sum            *float64          `json:"sum"`
	Count          *json.RawMessage  `json:"count"`
	Min            *float64          `json:"min"`
	Max            *float64          `json:"max"`
	BucketCounts   []json.RawMessage `json:"bucketCounts"`
	ExplicitBounds []float64         `json:"explicitBounds"`
	Attributes     []keyValue        `json:"attributes"`
}

type otlpSum struct {
	DataPoints  []otlpNumberDataPoint `json:"dataPoints"`
	IsMonotonic bool                  `json:"isMonotonic"`
}

type otlpGauge struct {
	DataPoints []otlpNumberDataPoint `json:"dataPoints"`
}

type otlpHistogram struct {
	DataPoints []otlpHistogramDataPoint `json:"dataPoints"`
}

type otlpMetric struct {
	Name      string         `json:"name"`
	Sum       *otlpSum       `json:"sum"`
	Gauge     *otlpGauge     `json:"gauge"`
	Histogram *otlpHistogram `json:"histogram"`
}

type scopeMetrics struct {
	Metrics []otlpMetric `json:"metrics"`
}

type resourceMetrics struct {
	Resource     resource       `json:"resource"`
	ScopeMetrics []scopeMetrics `json:"scopeMetrics"`
}

// metricsEnvelope is the standard OTLP resourceMetrics export request.
type metricsEnvelope struct {
	ResourceMetrics []resourceMetrics `json:"resourceMetrics"`
}

// bareMetric is the simplified flat metric shape used by lightweight
// producers (see original_source/bridge.py): a single data point with no
// OTLP wrapper, used for ad hoc counters/gauges.
type bareMetric struct {
	Name      string            `json:"name"`
	Timestamp *float64          `json:"timestamp"`
	Value     *json.RawMessage  `json:"value"`
	Labels    map[string]string `json:"labels"`
}

// metricsContainer is the `{"metrics": [...]}` variant of bareMetric.
type metricsContainer struct {
	Metrics []bareMetric `json:"metrics"`
}

// Metrics decodes an OTLP/HTTP JSON metrics export body into MetricPoints.
// A malformed individual data point is skipped without aborting the whole
// metric; a malformed whole metric is skipped without aborting the batch,
// per spec.md §4.1.
func Metrics(body []byte) []*model.MetricPoint {
	var env metricsEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.ResourceMetrics) > 0 {
		return metricsFromEnvelope(env)
	}

	var container metricsContainer
	if err := json.Unmarshal(body, &container); err == nil && len(container.Metrics) > 0 {
		points := make([]*model.MetricPoint, 0, len(container.Metrics))
		for _, m := range container.Metrics {
			if p := bareMetricToPoint(m); p != nil {
				points = append(points, p)
			}
		}
		return points
	}

	var single bareMetric
	if err := json.Unmarshal(body, &single); err == nil && single.Name != "" {
		if p := bareMetricToPoint(single); p != nil {
			return []*model.MetricPoint{p}
		}
	}

	return nil
}

func metricsFromEnvelope(env metricsEnvelope) []*model.MetricPoint {
	var points []*model.MetricPoint
	for _, rm := range env.ResourceMetrics {
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				points = append(points, metricToPoints(m)...)
			}
		}
	}
	return points
}

// metricToPoints converts one OTLP metric to zero or more MetricPoints. Any
// panic-free decode failure on a data point just drops that point.
func metricToPoints(m otlpMetric) []*model.MetricPoint {
	if m.Name == "" {
		return nil
	}

	switch {
	case m.Sum != nil:
		metricType := model.MetricTypeGauge
		if m.Sum.IsMonotonic {
			metricType = model.MetricTypeCounter
		}
		return numberPoints(m.Name, metricType, m.Sum.DataPoints)

	case m.Gauge != nil:
		return numberPoints(m.Name, model.MetricTypeGauge, m.Gauge.DataPoints)

	case m.Histogram != nil:
		return histogramPoints(m.Name, m.Histogram.DataPoints)

	default:
		return nil
	}
}

func numberPoints(name string, metricType model.MetricType, dps []otlpNumberDataPoint) []*model.MetricPoint {
	points := make([]*model.MetricPoint, 0, len(dps))
	for _, dp := range dps {
		value := 0.0
		if dp.AsInt != nil {
			n, ok := parseFlexInt(*dp.AsInt)
			if !ok {
				continue
			}
			value = float64(n)
		} else if dp.AsDouble != nil {
			value = *dp.AsDouble
		}

		points = append(points, &model.MetricPoint{
			Name:       name,
			Type:       metricType,
			TimestampS: float64(flexUint(dp.TimeUnixNano)) / 1e9,
			Value:      value,
			Labels:     decodeLabels(dp.Attributes),
		})
	}
	return points
}

func histogramPoints(name string, dps []otlpHistogramDataPoint) []*model.MetricPoint {
	points := make([]*model.MetricPoint, 0, len(dps))
	for _, dp := range dps {
		sum := 0.0
		if dp.Sum != nil {
			sum = *dp.Sum
		}
		count := int64(0)
		if dp.Count != nil {
			n, ok := parseFlexInt(*dp.Count)
			if !ok {
				continue
			}
			count = n
		}
		malformedBucket := false
		for _, raw := range dp.BucketCounts {
			if _, ok := parseFlexInt(raw); !ok {
				malformedBucket = true
			}
		}
		if malformedBucket {
			continue
		}

		value := sum
		if count > 0 {
			value = sum / float64(count)
		}

		hist := &model.Histogram{
			Sum:     sum,
			Count:   count,
			Min:     dp.Min,
			Max:     dp.Max,
			Average: value,
			Buckets: alignBuckets(dp.BucketCounts, dp.ExplicitBounds),
		}

		points = append(points, &model.MetricPoint{
			Name:       name,
			Type:       model.MetricTypeHistogram,
			TimestampS: float64(flexUint(dp.TimeUnixNano)) / 1e9,
			Value:      value,
			Labels:     decodeLabels(dp.Attributes),
			Histogram:  hist,
		})
	}
	return points
}

// alignBuckets implements the OTLP explicit-bucket-histogram contract: N
// bounds imply N+1 bucketCounts, the last of which is the +Inf bucket.
// With no bounds at all, every bucket is the +Inf bucket (spec.md §4.1).
func alignBuckets(bucketCounts []json.RawMessage, bounds []float64) []model.HistogramBucket {
	if len(bucketCounts) == 0 {
		return nil
	}

	buckets := make([]model.HistogramBucket, 0, len(bucketCounts))
	for i, raw := range bucketCounts {
		count, _ := parseFlexInt(raw)
		b := model.HistogramBucket{Count: count}
		if i < len(bounds) {
			bound := bounds[i]
			b.Bound = &bound
		}
		buckets = append(buckets, b)
	}
	return buckets
}

func bareMetricToPoint(m bareMetric) *model.MetricPoint {
	if m.Name == "" {
		return nil
	}

	timestampS := 0.0
	if m.Timestamp != nil {
		timestampS = *m.Timestamp
	}

	value := 0.0
	if m.Value != nil {
		var f float64
		if err := json.Unmarshal(*m.Value, &f); err == nil {
			value = f
		}
	}

	return &model.MetricPoint{
		Name:       m.Name,
		Type:       model.MetricTypeGauge,
		TimestampS: timestampS,
		Value:      value,
		Labels:     m.Labels,
	}
}
