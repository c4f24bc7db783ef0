// Package metrics counts mutations, validation failures and backup rotations
// of one kimm process. The registry is private to the process and is written
// to a node_exporter textfile on exit when a path is configured.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "kimm_"

	ResultSuccess    = "success"
	ResultValidation = "validation"
	ResultError      = "error"
)

// Recorder owns the registry and collectors. A nil *Recorder records nothing.
type Recorder struct {
	reg *prometheus.Registry

	mutations  *prometheus.CounterVec
	validation *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	rotations  *prometheus.CounterVec
	snapshots  prometheus.Gauge
	exports    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mutations_total",
				Help: "Total configuration mutations by entity, operation and result",
			},
			[]string{"entity", "op", "result"},
		),
		validation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "validation_failures_total",
				Help: "Total rejected inputs by failure kind",
			},
			[]string{"kind"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "operation_duration_seconds",
				Help:    "Mutation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity", "op"},
		),
		rotations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "backup_rotations_total",
				Help: "Total backup rotations by result",
			},
			[]string{"result"},
		),
		snapshots: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "backup_snapshots",
				Help: "Number of past snapshots retained",
			},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Total mapping exports by format and result",
			},
			[]string{"format", "result"},
		),
	}
	r.reg.MustRegister(r.mutations, r.validation, r.latency, r.rotations, r.snapshots, r.exports)
	return r
}

// Registry exposes the registry for tests and custom gatherers.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// ObserveMutation records one finished mutation.
func (r *Recorder) ObserveMutation(entity, op, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(entity, op, result).Inc()
	r.latency.WithLabelValues(entity, op).Observe(d.Seconds())
}

// ValidationFailure records one rejected input.
func (r *Recorder) ValidationFailure(kind string) {
	if r == nil {
		return
	}
	r.validation.WithLabelValues(kind).Inc()
}

// BackupRotation records one rotation attempt and the retained snapshot count.
func (r *Recorder) BackupRotation(result string, snapshots int) {
	if r == nil {
		return
	}
	r.rotations.WithLabelValues(result).Inc()
	if snapshots >= 0 {
		r.snapshots.Set(float64(snapshots))
	}
}

// Export records one export.
func (r *Recorder) Export(format, result string) {
	if r == nil {
		return
	}
	r.exports.WithLabelValues(format, result).Inc()
}

// WriteTextfile writes every metric in the text exposition format to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
