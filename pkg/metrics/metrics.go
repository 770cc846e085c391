// Package metrics exposes Prometheus instrumentation for transfer sessions.
//
// # Overview
//
// A Collector owns one set of session metrics registered against a
// prometheus.Registerer. The CLI registers it, together with the Go and
// process collectors, on a per-run registry served on /metrics.
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewCollector(reg)
//	collector.RecordBatch(rows)
//
// All Collector methods are safe on a nil receiver, so components accept an
// optional collector without guarding every call.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch stages passed to ObserveStage.
const (
	StageImport    = "import"
	StageTransform = "transform"
	StageExport    = "export"
)

// Collector records session metrics.
type Collector struct {
	rowsProcessed    prometheus.Counter
	batchesProcessed prometheus.Counter
	stageLatency     *prometheus.HistogramVec
	substitutions    *prometheus.CounterVec
	throughput       prometheus.Gauge
	startTime        time.Time
}

// NewCollector creates the session metrics and registers them with reg.
// Registering twice against the same registry panics, as with promauto.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		rowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mojo_rows_processed_total",
			Help: "Total number of rows scored and exported",
		}),
		batchesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mojo_batches_processed_total",
			Help: "Total number of batches scored and exported",
		}),
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "mojo_batch_stage_seconds",
				Help: "Time spent per batch in each stage",
				Buckets: []float64{
					1e-5, // 10µs
					1e-4, // 100µs
					1e-3, // 1ms
					1e-2, // 10ms
					1e-1, // 100ms
					1,
					10,
				},
			},
			[]string{"stage"},
		),
		substitutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mojo_value_substitutions_total",
				Help: "Unparseable CSV values replaced by the missing sentinel of their type",
			},
			[]string{"type"},
		),
		throughput: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mojo_throughput_rows_per_second",
			Help: "Rows per second since the collector was created",
		}),
		startTime: time.Now(),
	}
}

// RecordBatch counts one exported batch of rows rows.
func (c *Collector) RecordBatch(rows int) {
	if c == nil {
		return
	}
	c.rowsProcessed.Add(float64(rows))
	c.batchesProcessed.Inc()
}

// ObserveStage records how long a batch spent in stage.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.stageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordSubstitution counts a value of typ that failed to parse.
func (c *Collector) RecordSubstitution(typ string) {
	if c == nil {
		return
	}
	c.substitutions.WithLabelValues(typ).Inc()
}

// UpdateThroughput sets the throughput gauge from the running row total.
func (c *Collector) UpdateThroughput(totalRows int) float64 {
	if c == nil {
		return 0
	}
	elapsed := time.Since(c.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	rate := float64(totalRows) / elapsed
	c.throughput.Set(rate)
	return rate
}

// StartTime returns when the collector was created.
func (c *Collector) StartTime() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.startTime
}

// Timer measures one operation.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer starts timing immediately.
//
//	timer := metrics.NewTimer(metrics.StageTransform)
//	err := pipeline.Transform(frame, rows)
//	collector.ObserveStage(timer.Name(), timer.Stop())
func NewTimer(name string) *Timer {
	return &Timer{start: time.Now(), name: name}
}

// Name returns the name the timer was created with.
func (t *Timer) Name() string { return t.name }

// Stop returns the time elapsed since creation. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
