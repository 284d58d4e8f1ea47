// Package sequence implements the per-lot monotonic sequence source (C3).
//
// Two implementations are provided, matching spec §4.3: an in-process
// counter for single-instance deployments, and a Redis-backed counter for
// multi-instance deployments where global ordering across instances
// matters.
package sequence

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Source produces strictly monotonic per-lot sequence numbers.
type Source interface {
	// Next returns the next sequence number for lotID. The first call for
	// a given lot returns 1; consecutive calls are strictly increasing.
	Next(lotID uuid.UUID) (int64, error)

	// Current returns the last issued value for lotID, or 0 if none has
	// been issued yet. Diagnostic only.
	Current(lotID uuid.UUID) int64
}

// InMemorySource is a process-wide, thread-safe Source backed by a map of
// atomic counters, one per lot, created lazily on first use.
type InMemorySource struct {
	counters sync.Map // uuid.UUID -> *atomic.Int64
}

// NewInMemorySource constructs an empty in-process sequence source.
func NewInMemorySource() *InMemorySource {
	return &InMemorySource{}
}

func (s *InMemorySource) Next(lotID uuid.UUID) (int64, error) {
	actual, _ := s.counters.LoadOrStore(lotID, new(atomic.Int64))
	counter := actual.(*atomic.Int64)
	return counter.Add(1), nil
}

func (s *InMemorySource) Current(lotID uuid.UUID) int64 {
	actual, ok := s.counters.Load(lotID)
	if !ok {
		return 0
	}
	return actual.(*atomic.Int64).Load()
}
