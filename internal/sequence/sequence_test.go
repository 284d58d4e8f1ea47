package sequence

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySource_FirstCallReturnsOne(t *testing.T) {
	s := NewInMemorySource()
	lot := uuid.New()

	n, err := s.Next(lot)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestInMemorySource_StrictlyIncreasing(t *testing.T) {
	s := NewInMemorySource()
	lot := uuid.New()

	var prev int64
	for i := 0; i < 10; i++ {
		n, err := s.Next(lot)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
	assert.EqualValues(t, 10, s.Current(lot))
}

func TestInMemorySource_LotsAreIndependent(t *testing.T) {
	s := NewInMemorySource()
	a, b := uuid.New(), uuid.New()

	_, _ = s.Next(a)
	_, _ = s.Next(a)
	n, err := s.Next(b)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "a fresh lot starts at 1 regardless of other lots' state")
}

func TestInMemorySource_CurrentIsZeroBeforeFirstCall(t *testing.T) {
	s := NewInMemorySource()
	assert.EqualValues(t, 0, s.Current(uuid.New()))
}

func TestInMemorySource_ConcurrentNext_AllDistinctAndDense(t *testing.T) {
	s := NewInMemorySource()
	lot := uuid.New()

	const n = 200
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Next(lot)
			require.NoError(t, err)
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for v := range results {
		assert.False(t, seen[v], "sequence value %d issued twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
	assert.EqualValues(t, n, s.Current(lot))
}
