package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for the credit ledger.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	appends          *prometheus.CounterVec
	lockWait         prometheus.Histogram
	reconciled       prometheus.Counter
	negativeAccounts prometheus.Gauge
	expiringCents    prometheus.Gauge
}

// New creates collectors registered in a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		appends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditledger_appends_total",
				Help: "Ledger append attempts by entry kind and result",
			},
			[]string{"kind", "result"},
		),
		lockWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "creditledger_lock_wait_seconds",
				Help:    "Time spent acquiring per-account locks",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		reconciled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "creditledger_reconciled_accounts_total",
				Help: "Accounts checked by the reconciler",
			},
		),
		negativeAccounts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "creditledger_negative_accounts",
				Help: "Accounts found with a negative balance during the last reconcile pass",
			},
		),
		expiringCents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "creditledger_expiring_cents",
				Help: "Credit expiring within the configured horizon, as of the last reconcile pass",
			},
		),
	}

	m.registry.MustRegister(
		m.appends,
		m.lockWait,
		m.reconciled,
		m.negativeAccounts,
		m.expiringCents,
	)
	return m
}

// Handler exposes collected metrics in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAppend counts an append attempt.
func (m *Metrics) ObserveAppend(kind, result string) {
	if m == nil {
		return
	}
	m.appends.WithLabelValues(kind, result).Inc()
}

// ObserveLockWait records how long an account lock took.
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

// ObserveReconcilePass publishes totals for a finished reconcile pass.
func (m *Metrics) ObserveReconcilePass(accounts, negative int, expiringCents int64) {
	if m == nil {
		return
	}
	m.reconciled.Add(float64(accounts))
	m.negativeAccounts.Set(float64(negative))
	m.expiringCents.Set(float64(expiringCents))
}
