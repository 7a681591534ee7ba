// Package metrics registers and exposes Prometheus counters for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records service-level counters. It satisfies the signup
// package's Metrics interface.
type Collector struct {
	signUpSuccess     prometheus.Counter
	signUpFailure     *prometheus.CounterVec
	provisionAttempts prometheus.Counter
	compensations     *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpLatency       prometheus.Histogram
}

// NewCollector constructs a Collector and registers its metrics with the
// supplied registry.
func NewCollector(registry prometheus.Registerer) *Collector {
	collector := &Collector{
		signUpSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "discstash_signup_success_total",
			Help: "Completed account signups.",
		}),
		signUpFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discstash_signup_failure_total",
			Help: "Failed account signups by reason.",
		}, []string{"reason"}),
		provisionAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "discstash_profile_provision_attempts_total",
			Help: "Profile provisioning attempts, including retries.",
		}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discstash_signup_compensations_total",
			Help: "Compensation runs after exhausted provisioning, by policy.",
		}, []string{"policy"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discstash_http_requests_total",
			Help: "HTTP responses by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "discstash_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		collector.signUpSuccess,
		collector.signUpFailure,
		collector.provisionAttempts,
		collector.compensations,
		collector.httpRequests,
		collector.httpLatency,
	)
	return collector
}

// SignUpSucceeded records a completed signup.
func (c *Collector) SignUpSucceeded() {
	c.signUpSuccess.Inc()
}

// SignUpFailed records a failed signup under its reason.
func (c *Collector) SignUpFailed(reason string) {
	c.signUpFailure.WithLabelValues(reason).Inc()
}

// ProvisionAttempted records one profile provisioning attempt.
func (c *Collector) ProvisionAttempted() {
	c.provisionAttempts.Inc()
}

// Compensated records a compensation run under its policy name.
func (c *Collector) Compensated(policy string) {
	c.compensations.WithLabelValues(policy).Inc()
}

// RequestObserved records one HTTP response and its latency.
func (c *Collector) RequestObserved(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for the registry.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
