// Package metrics exposes Prometheus collectors for requests, supervisor
// steps, tool calls and the tool cache. A nil *Metrics is a valid no-op.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tutormesh"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
	stepDuration    *prometheus.HistogramVec
	toolCalls       *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// New registers all collectors, plus Go and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Questions answered by the supervisor.",
		}, []string{"status"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end latency of a question.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "step_duration_seconds",
			Help:      "Latency of supervisor steps.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step", "status"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Tool invocations requested by the reasoning model.",
		}, []string{"tool", "status"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "call_duration_seconds",
			Help:      "Latency of tool invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "cache_lookups_total",
			Help:      "Tool result cache lookups.",
		}, []string{"tool", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "path", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.stepDuration,
		m.toolCalls,
		m.toolDuration,
		m.cacheLookups,
		m.httpRequests,
	)

	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one answered question.
func (m *Metrics) ObserveRequest(dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(status(err)).Inc()
	m.requestDuration.Observe(dur.Seconds())
}

// ObserveStep matches agent.SupervisorOptions.OnStep.
func (m *Metrics) ObserveStep(step string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step, status(err)).Observe(dur.Seconds())
}

// ObserveToolCall matches flow.FunctionExecutorConfig.OnCall.
func (m *Metrics) ObserveToolCall(tool string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status(err)).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(dur.Seconds())
}

// ObserveCacheLookup matches tool.CachedToolOptions.OnLookup.
func (m *Metrics) ObserveCacheLookup(tool string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(tool, result).Inc()
}

// ObserveHTTP records a served HTTP request. path should be the route
// pattern, not the raw URL.
func (m *Metrics) ObserveHTTP(method, path string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
