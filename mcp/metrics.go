package mcp

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"buddy-mcp/tools"
)

const metricsNamespace = "buddy_mcp"

// Metrics collects tool call and transport metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	rpcRequests  *prometheus.CounterVec
	streams      prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "tool_calls_total",
				Help:      "Tool invocations by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "tool_call_duration_seconds",
				Help:      "Duration of tool invocations in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"tool"},
		),
		rpcRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "rpc_requests_total",
				Help:      "JSON-RPC requests by method",
			},
			[]string{"method"},
		),
		streams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "event_streams_open",
			Help:      "Currently open event streams",
		}),
	}
	m.registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.rpcRequests,
		m.streams,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeCall(tool string, err error, d time.Duration) {
	if m == nil {
		return
	}
	// Unknown names are collapsed so that callers cannot grow label cardinality.
	if _, known := tools.Lookup(tool); !known {
		tool = "unknown"
	}
	outcome := "ok"
	if err != nil {
		outcome = string(tools.KindOf(err))
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

func (m *Metrics) observeMethod(method string) {
	if m == nil {
		return
	}
	switch method {
	case "initialize", "tools/list", "tools/call":
	default:
		method = "other"
	}
	m.rpcRequests.WithLabelValues(method).Inc()
}

func (m *Metrics) streamOpened() {
	if m != nil {
		m.streams.Inc()
	}
}

func (m *Metrics) streamClosed() {
	if m != nil {
		m.streams.Dec()
	}
}
