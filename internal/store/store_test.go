package store

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntity struct {
	ID      uuid.UUID
	Version uint32
}

func (f fakeEntity) EntityID() uuid.UUID    { return f.ID }
func (f fakeEntity) EntityVersion() uint32  { return f.Version }

func TestAdd_DuplicateID(t *testing.T) {
	s := New[fakeEntity]()
	id := uuid.New()

	require.NoError(t, s.Add(fakeEntity{ID: id, Version: 1}))

	err := s.Add(fakeEntity{ID: id, Version: 1})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestGet_NotFound(t *testing.T) {
	s := New[fakeEntity]()
	_, err := s.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_RequiresExactSuccessorVersion(t *testing.T) {
	s := New[fakeEntity]()
	id := uuid.New()
	require.NoError(t, s.Add(fakeEntity{ID: id, Version: 1}))

	// Correct: stored is 1, incoming must be 2.
	require.NoError(t, s.Update(fakeEntity{ID: id, Version: 2}))

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Version)
}

func TestUpdate_VersionConflict(t *testing.T) {
	s := New[fakeEntity]()
	id := uuid.New()
	require.NoError(t, s.Add(fakeEntity{ID: id, Version: 1}))
	require.NoError(t, s.Update(fakeEntity{ID: id, Version: 2}))

	// Someone else already advanced to 2; a second writer loaded at 1 and
	// tries to commit 2 again — must fail.
	err := s.Update(fakeEntity{ID: id, Version: 2})
	require.Error(t, err)
	assert.True(t, IsVersionConflict(err))

	var vc *VersionConflictError
	require.ErrorAs(t, err, &vc)
	assert.EqualValues(t, 3, vc.Expected)
	assert.EqualValues(t, 2, vc.Actual)
}

func TestUpdate_NotFound(t *testing.T) {
	s := New[fakeEntity]()
	err := s.Update(fakeEntity{ID: uuid.New(), Version: 2})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAll_ReturnsSnapshot(t *testing.T) {
	s := New[fakeEntity]()
	a, b := uuid.New(), uuid.New()
	require.NoError(t, s.Add(fakeEntity{ID: a, Version: 1}))
	require.NoError(t, s.Add(fakeEntity{ID: b, Version: 1}))

	all := s.GetAll()
	assert.Len(t, all, 2)
}

func TestFilter(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	even := Filter(items, func(n int) bool { return n%2 == 0 })
	assert.Equal(t, []int{2, 4, 6}, even)
}

// TestStore_ConcurrentUpdates_OnlyOneSucceedsPerVersionStep exercises the
// store's internal mutual-exclusion section directly: many goroutines race
// to advance the same entity from version 1, only one can win per step.
func TestStore_ConcurrentUpdates_OnlyOneSucceedsPerVersionStep(t *testing.T) {
	s := New[fakeEntity]()
	id := uuid.New()
	require.NoError(t, s.Add(fakeEntity{ID: id, Version: 1}))

	const n = 20
	var wg sync.WaitGroup
	var successes int
	var mu sync.Mutex

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Update(fakeEntity{ID: id, Version: 2}); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one concurrent writer should win the version-1-to-2 transition")
}
