// Package metrics exposes Prometheus collectors for the relay.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satriahrh/dsa-assistant/domain"
)

const namespace = "dsa_assistant"

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CompletionsTotal   *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	CompletionTokens   *prometheus.CounterVec

	WebsocketClients prometheus.Gauge
	RateLimited      prometheus.Counter
}

// New registers all collectors on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		CompletionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Upstream completion calls by operation and outcome",
		}, []string{"op", "provider", "outcome"}),
		CompletionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Latency of upstream completion calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"op", "provider"}),
		CompletionTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_tokens_total",
			Help:      "Tokens reported by the provider",
		}, []string{"provider", "kind"}),

		WebsocketClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Currently connected websocket clients",
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-IP rate limiter",
		}),
	}
}

// ObserveCompletion implements domain.Metrics.
func (m *Metrics) ObserveCompletion(op, provider, outcome string, d time.Duration, usage domain.Usage) {
	m.CompletionsTotal.WithLabelValues(op, provider, outcome).Inc()
	m.CompletionDuration.WithLabelValues(op, provider).Observe(d.Seconds())
	if usage.PromptTokens > 0 {
		m.CompletionTokens.WithLabelValues(provider, "prompt").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		m.CompletionTokens.WithLabelValues(provider, "completion").Add(float64(usage.CompletionTokens))
	}
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) RateLimitedInc() { m.RateLimited.Inc() }

func (m *Metrics) WebsocketConnected() { m.WebsocketClients.Inc() }

func (m *Metrics) WebsocketDisconnected() { m.WebsocketClients.Dec() }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
