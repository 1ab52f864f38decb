// Package metrics provides Prometheus metrics for a normalization run.
//
// A run is a batch job, so metrics are not served; they are written once in
// the text exposition format for a node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "normalizer"

// Collector holds the counters of one run on a private registry.
type Collector struct {
	registry *prometheus.Registry

	rowsRead      prometheus.Counter
	rowsWritten   prometheus.Counter
	rowsDropped   *prometheus.CounterVec
	decodeErrors  prometheus.Counter
	transformTime prometheus.Histogram
	lastRun       prometheus.Gauge
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		rowsRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total number of rows decoded from the input, header included",
		}),
		rowsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Total number of rows written to the output, header included",
		}),
		rowsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Total number of data rows dropped because a transform failed",
		}, []string{"reason"}),
		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Total number of input records skipped because they could not be decoded",
		}),
		transformTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "row_transform_seconds",
			Help:      "Time spent transforming a single data row",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// RowRead records a decoded row.
func (c *Collector) RowRead() {
	c.rowsRead.Inc()
}

// RowWritten records a row handed to the encoder.
func (c *Collector) RowWritten() {
	c.rowsWritten.Inc()
}

// RowDropped records a data row dropped for reason.
func (c *Collector) RowDropped(reason string) {
	c.rowsDropped.WithLabelValues(reason).Inc()
}

// DecodeError records a record skipped by the decoder.
func (c *Collector) DecodeError() {
	c.decodeErrors.Inc()
}

// ObserveTransform records the time spent on one row.
func (c *Collector) ObserveTransform(d time.Duration) {
	c.transformTime.Observe(d.Seconds())
}

// Finish stamps the end-of-run gauge.
func (c *Collector) Finish(at time.Time) {
	c.lastRun.Set(float64(at.Unix()))
}

// Registry exposes the private registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is written atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
