// Package metrics exposes curator's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

const namespace = "curator"

// Outcome of one discovered item.
const (
	OutcomeQueued    = "queued"
	OutcomeDiscarded = "discarded"
	OutcomeFailed    = "failed"
)

// Metrics holds every collector. Each instance owns its registry so tests
// can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	ScoringCalls        prometheus.Counter
	ItemsDiscovered     *prometheus.CounterVec
	RunsFinished        *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	ActiveRuns          prometheus.Gauge
	ModerationDecisions *prometheus.CounterVec

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge
}

// New registers all collectors plus Go and process collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ScoringCalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_calls_total",
			Help:      "Documents scored against a keyword set.",
		}),
		ItemsDiscovered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawl_items_total",
			Help:      "Discovered items by outcome.",
		}, []string{"outcome"}),
		RunsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawl_runs_total",
			Help:      "Crawl runs that reached a terminal status.",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crawl_run_duration_seconds",
			Help:      "Wall time of finished crawl runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		ActiveRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crawl_runs_active",
			Help:      "Crawl runs currently executing in this process.",
		}),
		ModerationDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_decisions_total",
			Help:      "Moderation items moved to a decided status.",
		}, []string{"status"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}
}

// Handler serves this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordItem counts one discovered item.
func (m *Metrics) RecordItem(outcome string) {
	m.ItemsDiscovered.WithLabelValues(outcome).Inc()
}

// RecordRun counts a finished run and observes its duration when it has one.
func (m *Metrics) RecordRun(run *domain.CrawlRun) {
	m.RunsFinished.WithLabelValues(string(run.Status)).Inc()
	if d, ok := run.Duration(); ok {
		m.RunDuration.Observe(d.Seconds())
	}
}

// RunStarted increments the active gauge and returns the matching decrement.
func (m *Metrics) RunStarted() (done func()) {
	m.ActiveRuns.Inc()
	return m.ActiveRuns.Dec
}

// RecordDecision counts one moderation decision.
func (m *Metrics) RecordDecision(status domain.ModerationStatus) {
	m.ModerationDecisions.WithLabelValues(string(status)).Inc()
}

