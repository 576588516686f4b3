// Package metrics exposes Prometheus instrumentation for the control loops.
// All methods are no-ops on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "heater"

type Metrics struct {
	registry *prometheus.Registry

	loopRuns     *prometheus.CounterVec
	loopOverruns *prometheus.CounterVec
	loopDuration *prometheus.HistogramVec
	safetyTrips  *prometheus.CounterVec
	relaySwitch  *prometheus.CounterVec
	targetC      prometheus.Gauge
	deltaC       prometheus.Gauge
	safe         prometheus.Gauge
	relayOn      *prometheus.GaugeVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loopRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_iterations_total",
			Help:      "Iterations executed per periodic loop.",
		}, []string{"loop"}),
		loopOverruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_overruns_total",
			Help:      "Iterations that started after their scheduled wake time.",
		}, []string{"loop"}),
		loopDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loop_duration_seconds",
			Help:      "Time spent in one loop iteration.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1},
		}, []string{"loop"}),
		safetyTrips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "safety_trips_total",
			Help:      "Transitions to unsafe, by source.",
		}, []string{"source"}),
		relaySwitch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_transitions_total",
			Help:      "Relay output changes applied by the actuator.",
		}, []string{"relay"}),
		targetC: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_celsius",
			Help:      "Effective target temperature.",
		}),
		deltaC: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "control_delta_celsius",
			Help:      "Delta fed to the stage controller after safety checks.",
		}),
		safe: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "safe",
			Help:      "1 when the system is armed, 0 when unsafe.",
		}),
		relayOn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_on",
			Help:      "Applied relay state.",
		}, []string{"relay"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.loopRuns,
		m.loopOverruns,
		m.loopDuration,
		m.safetyTrips,
		m.relaySwitch,
		m.targetC,
		m.deltaC,
		m.safe,
		m.relayOn,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) LoopIteration(loop string, took time.Duration) {
	if m == nil {
		return
	}
	m.loopRuns.WithLabelValues(loop).Inc()
	m.loopDuration.WithLabelValues(loop).Observe(took.Seconds())
}

func (m *Metrics) LoopOverrun(loop string) {
	if m == nil {
		return
	}
	m.loopOverruns.WithLabelValues(loop).Inc()
}

func (m *Metrics) SafetyTrip(source string) {
	if m == nil {
		return
	}
	m.safetyTrips.WithLabelValues(source).Inc()
}

func (m *Metrics) RelayTransition(relay string, on bool) {
	if m == nil {
		return
	}
	m.relaySwitch.WithLabelValues(relay).Inc()
	m.relayOn.WithLabelValues(relay).Set(boolFloat(on))
}

// ControlCycle records the outcome of a control cycle.
func (m *Metrics) ControlCycle(target, delta float64, safe bool) {
	if m == nil {
		return
	}
	m.targetC.Set(target)
	m.deltaC.Set(delta)
	m.safe.Set(boolFloat(safe))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
