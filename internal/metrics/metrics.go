package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_commands_total",
		Help: "Total number of wallet commands handled, labelled by command and outcome.",
	}, []string{"command", "status"})

	EventsAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_events_appended_total",
		Help: "Total number of events durably appended to the event store.",
	})

	ConcurrencyConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_concurrency_conflicts_total",
		Help: "Total number of appends rejected by the optimistic-concurrency check.",
	})

	ProjectionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_projection_events_total",
		Help: "Total number of integration events consumed by the read projection, labelled by topic and outcome.",
	}, []string{"topic", "status"})

	AppendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_append_duration_ms",
		Help:    "Event store append latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
)
