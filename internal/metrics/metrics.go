// Package metrics instruments the orchestrator's optimistic-concurrency
// retry loop with prometheus collectors, mirroring the shape
// ayubon-vehicle-auc's internal/metrics exposes for the same OCC-retry
// pattern (BidOCCRetries, BidOCCConflictsTotal) and wired the way
// StreetsDigital-thenexusengine registers prometheus/client_golang
// collectors. Purely ambient observability: nothing here changes a
// command's return contract.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// BidsPlacedTotal counts successfully committed PlaceBid calls.
	BidsPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auction_bids_placed_total",
		Help: "Total number of bids successfully committed.",
	})

	// VersionConflictsTotal counts store.VersionConflictError occurrences
	// observed by the retry loop, whether or not the attempt eventually
	// succeeded.
	VersionConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auction_version_conflicts_total",
		Help: "Total number of version conflicts observed during commit.",
	})

	// RetryAttempts records how many attempts a mutating command needed,
	// across all commands (PlaceBid, CreateLot, StartAuction, CloseAuction).
	RetryAttempts = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auction_retry_attempts",
		Help:    "Number of attempts a mutating command took before succeeding or giving up.",
		Buckets: []float64{1, 2, 3},
	})

	// CommitDuration measures wall-clock time spent inside a command's
	// retry loop, from first attempt to final success or Unrecoverable.
	CommitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auction_command_duration_seconds",
		Help:    "Duration of a mutating orchestrator command, including retries.",
		Buckets: prometheus.DefBuckets,
	})

	// UnrecoverableTotal counts commands that exhausted MaxAttempts.
	UnrecoverableTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auction_unrecoverable_total",
		Help: "Total number of commands that exhausted their retry budget.",
	})
)

// Registry is a self-contained prometheus registry carrying only this
// package's collectors, so cmd/demo can expose /metrics without pulling in
// the default global registry's process/go collectors unless it wants to.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		BidsPlacedTotal,
		VersionConflictsTotal,
		RetryAttempts,
		CommitDuration,
		UnrecoverableTotal,
	)
}
