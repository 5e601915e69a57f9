// Package metrics exposes runtime counters and latency histograms for a
// running morphing host, collected with client_golang on a private
// registry and served over promhttp.HandlerFor from the management API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter and histogram the morphing host records.
// Construct with New, which registers everything on its own registry so
// tests can create as many independent instances as they like without
// colliding on prometheus.DefaultRegisterer.
type Metrics struct {
	reg *prometheus.Registry

	RequestsTotal  *prometheus.CounterVec // by content kind: html, css, js, object, fake_image
	MorphErrors    *prometheus.CounterVec // by reason: invalid_spec, sample_limit, io_error, parse_error
	StrategiesRun  *prometheus.CounterVec // by strategy: deterministic/probabilistic x inlining/no-inlining
	ObjectsInlined prometheus.Counter
	FakesInjected  prometheus.Counter

	MorphLatency  prometheus.Histogram // HTML morph pass, seconds
	ObjectLatency prometheus.Histogram // single-object padding pass, seconds

	startTime time.Time
}

// New creates a Metrics instance on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		RequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "alpaca",
			Name:      "requests_total",
			Help:      "Requests served, labeled by content kind.",
		}, []string{"kind"}),
		MorphErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "alpaca",
			Name:      "morph_errors_total",
			Help:      "Morphing aborts, labeled by error kind.",
		}, []string{"reason"}),
		StrategiesRun: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "alpaca",
			Name:      "strategies_run_total",
			Help:      "Morphing strategy invocations, labeled by strategy name.",
		}, []string{"strategy"}),
		ObjectsInlined: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "alpaca",
			Name:      "objects_inlined_total",
			Help:      "Real objects converted to inline data URIs.",
		}),
		FakesInjected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "alpaca",
			Name:      "fake_objects_injected_total",
			Help:      "Fake objects injected to reach a target object count.",
		}),
		MorphLatency: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "alpaca",
			Name:      "morph_duration_seconds",
			Help:      "Time to morph one HTML document.",
			Buckets:   prometheus.DefBuckets,
		}),
		ObjectLatency: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "alpaca",
			Name:      "object_pad_duration_seconds",
			Help:      "Time to pad one sub-resource.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		startTime: time.Now(),
	}
	return m
}

// Registry returns the private prometheus.Registry backing these metrics,
// for mounting behind promhttp.HandlerFor in the management API.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// RecordMorphLatency records the duration of one HTML morph pass.
func (m *Metrics) RecordMorphLatency(d time.Duration) {
	m.MorphLatency.Observe(d.Seconds())
}

// RecordObjectLatency records the duration of one object padding pass.
func (m *Metrics) RecordObjectLatency(d time.Duration) {
	m.ObjectLatency.Observe(d.Seconds())
}

// Uptime returns the duration since this Metrics instance was created.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// StrategyLabel builds the "strategy" label value StrategiesRun is keyed
// by, from the two booleans that select among the four morphing strategies.
func StrategyLabel(probabilistic, inlining bool) string {
	switch {
	case probabilistic && inlining:
		return "probabilistic_inlining"
	case probabilistic && !inlining:
		return "probabilistic_no_inlining"
	case !probabilistic && inlining:
		return "deterministic_inlining"
	default:
		return "deterministic_no_inlining"
	}
}
