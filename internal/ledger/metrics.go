package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registro_registrations_total",
		Help: "Attendance events recorded, by person type.",
	}, []string{"person_type"})

	duplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registro_duplicates_rejected_total",
		Help: "Insert attempts rejected by the one-event-per-day rule.",
	})

	flushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registro_flush_failures_total",
		Help: "Snapshot writes to the storage slot that failed.",
	})
)
