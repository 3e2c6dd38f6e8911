// Package metrics exposes bill lifecycle counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Settlement results.
const (
	ResultOK       = "ok"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Metrics holds the collectors registered on its own registry so tests
// can create as many instances as they need.
type Metrics struct {
	Registry *prometheus.Registry

	BillsCreated   prometheus.Counter
	Settlements    *prometheus.CounterVec
	SettledItems   prometheus.Counter
	BillsFinished  prometheus.Counter
	BillsDeleted   prometheus.Counter
	SettleDuration prometheus.Histogram
}

// New builds and registers all collectors, plus the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		BillsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splitbill_bills_created_total",
			Help: "Bills opened.",
		}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "splitbill_settlements_total",
			Help: "Settle attempts by result.",
		}, []string{"result"}),
		SettledItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splitbill_settled_items_total",
			Help: "Items marked paid by settlements.",
		}),
		BillsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splitbill_bills_finished_total",
			Help: "Bills closed by staff.",
		}),
		BillsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splitbill_bills_deleted_total",
			Help: "Bills hard-deleted.",
		}),
		SettleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitbill_settle_duration_seconds",
			Help:    "Time spent in the settle transaction.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.Registry.MustRegister(
		m.BillsCreated, m.Settlements, m.SettledItems, m.BillsFinished, m.BillsDeleted, m.SettleDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSettle records one settle attempt. A nil receiver is a no-op.
func (m *Metrics) ObserveSettle(result string, items int, took time.Duration) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(result).Inc()
	m.SettleDuration.Observe(took.Seconds())
	if items > 0 {
		m.SettledItems.Add(float64(items))
	}
}

func (m *Metrics) BillCreated() {
	if m != nil {
		m.BillsCreated.Inc()
	}
}

func (m *Metrics) BillFinished() {
	if m != nil {
		m.BillsFinished.Inc()
	}
}

func (m *Metrics) BillDeleted() {
	if m != nil {
		m.BillsDeleted.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
