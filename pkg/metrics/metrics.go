// Package metrics exposes the dashboard's own operational counters on a
// private Prometheus registry, kept separate from the firewall analytics
// the dashboard displays.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	fetches         *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fetchesInFlight prometheus.Gauge
	windowChanges   prometheus.Counter
	activePanels    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "honeypot_dashboard_fetches_total",
			Help: "Analytics fetches by panel and outcome",
		}, []string{"panel", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "honeypot_dashboard_fetch_duration_seconds",
			Help:    "Analytics fetch duration by panel",
			Buckets: prometheus.DefBuckets,
		}, []string{"panel"}),
		fetchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "honeypot_dashboard_fetches_in_flight",
			Help: "Fetches currently running",
		}),
		windowChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "honeypot_dashboard_window_changes_total",
			Help: "Dashboard time window replacements",
		}),
		activePanels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "honeypot_dashboard_active_panels",
			Help: "Panels currently registered with the refresh scheduler",
		}),
	}

	m.registry.MustRegister(
		m.fetches,
		m.fetchDuration,
		m.fetchesInFlight,
		m.windowChanges,
		m.activePanels,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
		prometheus.NewBuildInfoCollector(),
	)
	return m
}

// FetchStarted implements query.Observer.
func (m *Metrics) FetchStarted(id string) {
	m.fetchesInFlight.Inc()
}

// FetchSettled implements query.Observer.
func (m *Metrics) FetchSettled(id string, outcome string, elapsed time.Duration) {
	m.fetchesInFlight.Dec()
	m.fetches.WithLabelValues(id, outcome).Inc()
	m.fetchDuration.WithLabelValues(id).Observe(elapsed.Seconds())
}

func (m *Metrics) WindowChanged() {
	m.windowChanges.Inc()
}

func (m *Metrics) SetActivePanels(n int) {
	m.activePanels.Set(float64(n))
}

// RegisterTicks publishes the scheduler's tick counter.
func (m *Metrics) RegisterTicks(f func() uint64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "honeypot_dashboard_scheduler_ticks_total",
		Help: "Shared refresh timer ticks",
	}, func() float64 { return float64(f()) }))
}

// RegisterStreamClients publishes the number of connected event stream
// subscribers.
func (m *Metrics) RegisterStreamClients(f func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "honeypot_dashboard_stream_clients",
		Help: "Connected event stream subscribers",
	}, func() float64 { return float64(f()) }))
}

// RegisterDroppedEvents publishes the count of stream events dropped for
// subscribers that stopped draining.
func (m *Metrics) RegisterDroppedEvents(f func() int) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "honeypot_dashboard_stream_dropped_events_total",
		Help: "Stream events dropped for slow subscribers",
	}, func() float64 { return float64(f()) }))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
