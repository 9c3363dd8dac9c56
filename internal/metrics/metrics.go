// ABOUTME: Prometheus collector for gate, session, and upstream metrics
// ABOUTME: Registers counters and histograms against an injected registry

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus instruments for the backoffice. It
// satisfies the Recorder interfaces the routegate, session, and
// upstream packages declare on their side, so those packages never
// import Prometheus directly.
type Collector struct {
	gateDecisions        *prometheus.CounterVec
	sessionParseFail     prometheus.Counter
	sessionsCommitted    prometheus.Counter
	sessionsCleared      prometheus.Counter
	upstreamStatus       *prometheus.CounterVec
	upstreamLatency      prometheus.Histogram
	upstreamTransportErr prometheus.Counter
}

// NewCollector creates a Collector and registers its instruments with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_gate_decisions_total",
			Help: "Route gate decisions by outcome.",
		}, []string{"outcome"}),
		sessionParseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_session_parse_failures_total",
			Help: "Session records that failed to parse and were treated as unauthenticated.",
		}),
		sessionsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_sessions_committed_total",
			Help: "Sessions durably recorded after a successful login.",
		}),
		sessionsCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_sessions_cleared_total",
			Help: "Sessions cleared by logout.",
		}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_upstream_status_total",
			Help: "Upstream API responses by HTTP status code.",
		}, []string{"status_code"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backoffice_upstream_latency_seconds",
			Help:    "Upstream API call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		upstreamTransportErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_upstream_transport_errors_total",
			Help: "Upstream API calls that failed before receiving a response.",
		}),
	}

	reg.MustRegister(
		c.gateDecisions,
		c.sessionParseFail,
		c.sessionsCommitted,
		c.sessionsCleared,
		c.upstreamStatus,
		c.upstreamLatency,
		c.upstreamTransportErr,
	)

	return c
}

// RecordGateDecision counts a route gate outcome.
func (c *Collector) RecordGateDecision(outcome string) {
	c.gateDecisions.WithLabelValues(outcome).Inc()
}

// RecordSessionParseFailure counts a session record that could not be parsed.
func (c *Collector) RecordSessionParseFailure() {
	c.sessionParseFail.Inc()
}

// RecordSessionCommitted counts a session durably recorded at login.
func (c *Collector) RecordSessionCommitted() {
	c.sessionsCommitted.Inc()
}

// RecordSessionCleared counts a session cleared at logout.
func (c *Collector) RecordSessionCleared() {
	c.sessionsCleared.Inc()
}

// RecordUpstreamStatus counts an upstream response by status code.
func (c *Collector) RecordUpstreamStatus(statusCode int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamLatency records the duration of an upstream call.
func (c *Collector) RecordUpstreamLatency(d time.Duration) {
	c.upstreamLatency.Observe(d.Seconds())
}

// RecordUpstreamTransportError counts an upstream call that never
// produced a response.
func (c *Collector) RecordUpstreamTransportError() {
	c.upstreamTransportErr.Inc()
}

// Handler returns the scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
