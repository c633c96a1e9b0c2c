// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/IBM/pgxpoolprometheus"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "liftlog"

// Manager groups the application collectors.
type Manager struct {
	Requests        *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	Suggestions     *prometheus.CounterVec
	SetsLogged      prometheus.Counter
}

// NewRegistry returns a registry with Go runtime and process collectors.
// When pool is non-nil its connection stats are exported too.
func NewRegistry(pool *pgxpool.Pool) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if pool != nil {
		reg.MustRegister(pgxpoolprometheus.NewCollector(pool, map[string]string{"db_name": "liftlog"}))
	}
	return reg
}

// NewManager registers the application collectors on reg.
func NewManager(reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)
	return &Manager{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		Suggestions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "suggestions_total",
			Help:      "Progression suggestions served, by scheme and type.",
		}, []string{"scheme", "type"}),
		SetsLogged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "sets_logged_total",
			Help:      "Set logs created through the API.",
		}),
	}
}

// NewTestManager returns a Manager on a throwaway registry.
func NewTestManager() *Manager {
	return NewManager(prometheus.NewRegistry())
}
