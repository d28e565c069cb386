// Package observability defines the Prometheus metrics for the logbook
// core. Metrics are package-level promauto vars, exported on /metrics by
// the API server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Lifecycle Metrics ──────────────────────────────────────────────────────

// Mutations counts mutating operations by entity, operation and outcome.
var Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cadence",
	Subsystem: "logbook",
	Name:      "mutations_total",
	Help:      "Mutating logbook operations by entity, operation and outcome.",
}, []string{"entity", "op", "outcome"})

// Rollovers counts period close-and-roll operations.
var Rollovers = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadence",
	Subsystem: "logbook",
	Name:      "period_rollovers_total",
	Help:      "Total close-current-and-open-next period operations.",
})

// CadencesClosed counts cadence close operations.
var CadencesClosed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadence",
	Subsystem: "logbook",
	Name:      "cadences_closed_total",
	Help:      "Total cadences closed.",
})

// ─── Aggregation Metrics ────────────────────────────────────────────────────

// AggregateQueries counts read-only aggregate computations by kind.
var AggregateQueries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cadence",
	Subsystem: "logbook",
	Name:      "aggregate_queries_total",
	Help:      "Aggregate figure computations by kind.",
}, []string{"kind"})

// ─── Export Metrics ─────────────────────────────────────────────────────────

// ReportsExported counts XLSX cadence reports written.
var ReportsExported = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadence",
	Subsystem: "export",
	Name:      "reports_total",
	Help:      "Total cadence report workbooks exported.",
})

// RecordOutcome increments Mutations with a success/error outcome label.
func RecordOutcome(entity, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	Mutations.WithLabelValues(entity, op, outcome).Inc()
}
