package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_Concurrent(t *testing.T) {
	var a Allocator[EntityID]

	const workers, perWorker = 8, 500

	var mu sync.Mutex
	seen := make(map[EntityID]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]EntityID, 0, perWorker)
			for range perWorker {
				local = append(local, a.Next())
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
	assert.NotContains(t, seen, EntityID(InvalidID))
	assert.Equal(t, EntityID(workers*perWorker), a.Last())
}

func TestAllocator_Restore(t *testing.T) {
	var a Allocator[FactorID]
	a.Next()

	a.Restore(10)
	assert.Equal(t, FactorID(11), a.Next())

	// Never moves backwards.
	a.Restore(3)
	assert.Equal(t, FactorID(12), a.Next())
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "E7", EntityID(7).String())
	assert.Equal(t, "F3", FactorID(3).String())
}
