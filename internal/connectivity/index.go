// Package connectivity maintains the derived entity -> factor-id index.
//
// The index is a cache of the factor container and is never authoritative:
// Rebuild reconstructs it from factors and must produce a result Equal to
// the incrementally maintained one. Index is not safe for concurrent use;
// callers guard it with the factors lock.
package connectivity

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/worldmodel/model"
)

// Edge is anything that connects a set of entities.
type Edge interface {
	Entities() []model.EntityID
}

// Index maps entity ids to the set of factor ids touching them.
type Index struct {
	sets map[model.EntityID]*roaring64.Bitmap
}

// New returns an empty index.
func New() *Index {
	return &Index{sets: make(map[model.EntityID]*roaring64.Bitmap)}
}

// Rebuild recomputes an index from scratch.
func Rebuild[E Edge](factors map[model.FactorID]E) *Index {
	idx := New()
	for fid, f := range factors {
		idx.Add(fid, f.Entities())
	}
	return idx
}

// Add records fid against every entity in entities.
func (x *Index) Add(fid model.FactorID, entities []model.EntityID) {
	for _, id := range entities {
		set, ok := x.sets[id]
		if !ok {
			set = roaring64.New()
			x.sets[id] = set
		}
		set.Add(uint64(fid))
	}
}

// Remove drops fid from every entity in entities. Empty sets are deleted.
func (x *Index) Remove(fid model.FactorID, entities []model.EntityID) {
	for _, id := range entities {
		set, ok := x.sets[id]
		if !ok {
			continue
		}
		set.Remove(uint64(fid))
		if set.IsEmpty() {
			delete(x.sets, id)
		}
	}
}

// Factors returns the ids of all factors touching id, ascending.
func (x *Index) Factors(id model.EntityID) []model.FactorID {
	set, ok := x.sets[id]
	if !ok {
		return nil
	}
	out := make([]model.FactorID, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		out = append(out, model.FactorID(it.Next()))
	}
	return out
}

// Degree returns the number of factors touching id.
func (x *Index) Degree(id model.EntityID) int {
	if set, ok := x.sets[id]; ok {
		return int(set.GetCardinality())
	}
	return 0
}

// Referenced reports whether any factor touches id.
func (x *Index) Referenced(id model.EntityID) bool {
	_, ok := x.sets[id]
	return ok
}

// Len returns the number of entities with at least one factor.
func (x *Index) Len() int {
	return len(x.sets)
}

// Equal reports whether both indexes hold identical sets.
func (x *Index) Equal(other *Index) bool {
	if len(x.sets) != len(other.sets) {
		return false
	}
	for id, set := range x.sets {
		o, ok := other.sets[id]
		if !ok || !set.Equals(o) {
			return false
		}
	}
	return true
}

// Neighbors unions the entity sets of every factor touching id, excluding
// id itself. lookup resolves a factor id to its entities; unknown factors
// are skipped. The result is ascending.
func (x *Index) Neighbors(id model.EntityID, lookup func(model.FactorID) []model.EntityID) []model.EntityID {
	set, ok := x.sets[id]
	if !ok {
		return nil
	}

	acc := roaring64.New()
	it := set.Iterator()
	for it.HasNext() {
		for _, e := range lookup(model.FactorID(it.Next())) {
			acc.Add(uint64(e))
		}
	}
	acc.Remove(uint64(id))

	out := make([]model.EntityID, 0, acc.GetCardinality())
	ai := acc.Iterator()
	for ai.HasNext() {
		out = append(out, model.EntityID(ai.Next()))
	}
	return out
}
