package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts run outcomes on a private registry. It implements
// pipeline.Recorder and is safe for concurrent use by parallel workers.
type Metrics struct {
	reg *prometheus.Registry

	events       prometheus.Counter
	weightSum    prometheus.Gauge
	skipped      *prometheus.CounterVec
	regionPasses *prometheus.CounterVec
	regionWeight *prometheus.GaugeVec
	duration     prometheus.Gauge
}

// NewMetrics registers the run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monophoton_events_processed_total",
			Help: "Events that passed every builder and variable.",
		}),
		weightSum: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monophoton_event_weight_sum",
			Help: "Sum of weights of processed events.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monophoton_events_skipped_total",
			Help: "Degenerate events dropped, by failing stage.",
		}, []string{"stage"}),
		regionPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monophoton_region_passes_total",
			Help: "Committed region passes.",
		}, []string{"region"}),
		regionWeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "monophoton_region_weight_sum",
			Help: "Weighted region yield.",
		}, []string{"region"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monophoton_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
	}
	m.reg.MustRegister(m.events, m.weightSum, m.skipped, m.regionPasses, m.regionWeight, m.duration)
	return m
}

// EventProcessed records one fully evaluated event. Weights may be
// negative, so the weight sum is a gauge.
func (m *Metrics) EventProcessed(weight float64) {
	m.events.Inc()
	m.weightSum.Add(weight)
}

// EventSkipped records one degenerate event.
func (m *Metrics) EventSkipped(stage string) {
	m.skipped.WithLabelValues(stage).Inc()
}

// RegionPassed records one committed region pass.
func (m *Metrics) RegionPassed(region string, weight float64) {
	m.regionPasses.WithLabelValues(region).Inc()
	m.regionWeight.WithLabelValues(region).Add(weight)
}

// ObserveDuration sets the run wall time.
func (m *Metrics) ObserveDuration(d time.Duration) {
	m.duration.Set(d.Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
