// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// Each instance owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RPCRequests       *prometheus.CounterVec
	RPCDuration       *prometheus.HistogramVec
	SessionsCreated   prometheus.Counter
	SettlementsServed prometheus.Counter
	ReceiptsScanned   *prometheus.CounterVec
	LockWait          prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabsplit_rpc_requests_total",
			Help: "RPC calls by procedure and result code",
		}, []string{"procedure", "code"}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tabsplit_rpc_duration_seconds",
			Help:    "RPC latency by procedure",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabsplit_sessions_created_total",
			Help: "Total number of bill-splitting sessions created",
		}),
		SettlementsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabsplit_settlements_computed_total",
			Help: "Total number of settlement reports computed",
		}),
		ReceiptsScanned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabsplit_receipts_scanned_total",
			Help: "Receipt scans by outcome",
		}, []string{"outcome"}),
		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tabsplit_session_lock_wait_seconds",
			Help:    "Time spent waiting for a session lock",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
