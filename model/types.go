package model

import (
	"fmt"
	"sync/atomic"
)

// InvalidID is the zero identifier. No entity or factor is ever assigned it.
const InvalidID = 0

// EntityID is the unique identifier of an entity within a world model.
type EntityID uint64

// String returns a string representation of the EntityID.
func (id EntityID) String() string {
	return fmt.Sprintf("E%d", uint64(id))
}

// FactorID is the unique identifier of a factor within a world model.
// It lives in its own identifier space, independent of EntityID.
type FactorID uint64

// String returns a string representation of the FactorID.
func (id FactorID) String() string {
	return fmt.Sprintf("F%d", uint64(id))
}

// Allocator hands out monotonically increasing identifiers.
// It is safe for concurrent use.
type Allocator[T ~uint64] struct {
	last atomic.Uint64
}

// Next returns a fresh identifier. The first call returns 1.
func (a *Allocator[T]) Next() T {
	return T(a.last.Add(1))
}

// Last returns the most recently allocated identifier (InvalidID if none).
func (a *Allocator[T]) Last() T {
	return T(a.last.Load())
}

// Restore advances the allocator so that the next identifier is greater than last.
// It never moves the allocator backwards.
func (a *Allocator[T]) Restore(last T) {
	for {
		cur := a.last.Load()
		if uint64(last) <= cur {
			return
		}
		if a.last.CompareAndSwap(cur, uint64(last)) {
			return
		}
	}
}
