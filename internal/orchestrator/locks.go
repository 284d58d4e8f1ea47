package orchestrator

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex is a process-wide map from entity id to a non-reentrant
// single-permit mutex (spec §4.5, §9). Acquiring the permit for id K
// serializes all commands scoped to K; commands scoped to different K run
// in parallel. Entries are created lazily on first use and are never
// removed by the core — unbounded growth is an accepted limitation (see
// DESIGN.md for the sweeper open question from spec §9).
type keyedMutex struct {
	mus sync.Map // uuid.UUID -> *sync.Mutex
}

// Lock blocks until id's permit is held and returns the function that
// releases it.
func (k *keyedMutex) Lock(id uuid.UUID) func() {
	actual, _ := k.mus.LoadOrStore(id, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Delete removes id's entry, for use only by a future housekeeping
// sweeper (spec §9's open question) that can prove no acquirer remains —
// unused today, the core itself never calls this.
func (k *keyedMutex) Delete(id uuid.UUID) {
	k.mus.Delete(id)
}
