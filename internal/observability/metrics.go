package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	cellCreates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cellctl",
			Subsystem: "cell",
			Name:      "creates_total",
			Help:      "Cells created.",
		},
	)
	cellClones = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cellctl",
			Subsystem: "cell",
			Name:      "clones_total",
			Help:      "Owner references added by clone.",
		},
	)
	cellReleases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cellctl",
			Subsystem: "cell",
			Name:      "releases_total",
			Help:      "Owner references released.",
		},
	)
	cellDestroys = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cellctl",
			Subsystem: "cell",
			Name:      "destroys_total",
			Help:      "Cells destroyed after the last owner released.",
		},
	)
	cellOwners = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cellctl",
			Subsystem: "cell",
			Name:      "owners",
			Help:      "Live owner references across all cells.",
		},
	)
	leaseAcquired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cellctl",
			Subsystem: "lease",
			Name:      "acquired_total",
			Help:      "Leases granted by mode.",
		},
		[]string{"mode"},
	)
	leaseConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cellctl",
			Subsystem: "lease",
			Name:      "conflicts_total",
			Help:      "Lease requests refused by mode requested.",
		},
		[]string{"mode"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			cellCreates, cellClones, cellReleases, cellDestroys, cellOwners,
			leaseAcquired, leaseConflicts,
		)
	})
}

func RecordCellCreate() {
	RegisterMetrics()
	cellCreates.Inc()
	cellOwners.Inc()
}

func RecordCellClone() {
	RegisterMetrics()
	cellClones.Inc()
	cellOwners.Inc()
}

func RecordCellRelease() {
	RegisterMetrics()
	cellReleases.Inc()
	cellOwners.Dec()
}

func RecordCellDestroy() {
	RegisterMetrics()
	cellDestroys.Inc()
}

func RecordLeaseAcquired(mode string) {
	RegisterMetrics()
	leaseAcquired.WithLabelValues(mode).Inc()
}

func RecordLeaseConflict(mode string) {
	RegisterMetrics()
	leaseConflicts.WithLabelValues(mode).Inc()
}
