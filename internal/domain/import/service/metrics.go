package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "household_ledger",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Imported rows by outcome (saved, skipped).",
	}, []string{"outcome"})

	importRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "household_ledger",
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Import runs by final status (completed, decode_error, cancelled, failed).",
	}, []string{"status"})

	importCreatedEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "household_ledger",
		Subsystem: "import",
		Name:      "created_entities_total",
		Help:      "Categories and accounts created on the fly during imports.",
	}, []string{"kind"})

	importDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "household_ledger",
		Subsystem: "import",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of import runs.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
)

func recordOutcome(o RowOutcome) {
	switch o.Status {
	case RowSaved:
		importRows.WithLabelValues("saved").Inc()
	case RowSkipped:
		importRows.WithLabelValues("skipped").Inc()
	}
	if o.CreatedCategory != "" {
		importCreatedEntities.WithLabelValues("category").Inc()
	}
	if o.CreatedAccount != "" {
		importCreatedEntities.WithLabelValues("account").Inc()
	}
}
