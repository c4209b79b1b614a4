package worldmodel

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/worldmodel/entity"
	"github.com/hupe1980/worldmodel/factor"
	"github.com/hupe1980/worldmodel/model"
)

// EntitiesView reads the entity container. It is only valid inside the
// closure it was passed to, and so are the pointers it returns.
type EntitiesView struct {
	w *World
}

// EntityByID returns the live entity and touches its watch entry.
func (v EntitiesView) EntityByID(id model.EntityID) (*entity.Entity, error) {
	e, ok := v.w.entities[id]
	if !ok {
		return nil, entityNotFound(id)
	}
	v.w.watch.Touch(id, v.w.now())
	return e, nil
}

// Annotations returns the live annotation store of id. A view holds the
// entities lock shared, so the map is read-only here. Mutate it only inside
// UpdateEntities.
func (v EntitiesView) Annotations(id model.EntityID) (entity.Annotations, error) {
	e, err := v.EntityByID(id)
	if err != nil {
		return nil, err
	}
	return e.Annotations(), nil
}

// AllIDs returns a detached snapshot of entity ids, ascending.
func (v EntitiesView) AllIDs() []model.EntityID {
	ids := make([]model.EntityID, 0, len(v.w.entities))
	for id := range v.w.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of entities.
func (v EntitiesView) Len() int {
	return len(v.w.entities)
}

// EntitiesTx mutates the entity container under the entities write lock.
type EntitiesTx struct {
	EntitiesView
}

// Emplace inserts e under a fresh id, overwriting any id it carried, and
// arms its watch entry.
func (tx EntitiesTx) Emplace(e *entity.Entity) model.EntityID {
	start := time.Now()
	w := tx.w

	id := w.entityIDs.Next()
	e.AssignID(id)
	e.Annotations()
	w.entities[id] = e
	w.watch.Touch(id, w.now())

	w.metrics.RecordInsert("entity", time.Since(start), nil)
	w.logger.LogInsert(context.Background(), "entity", uint64(id), nil)
	return id
}

// Push inserts a deep copy of e. The caller's value is left untouched.
func (tx EntitiesTx) Push(e *entity.Entity) model.EntityID {
	return tx.Emplace(e.Clone())
}

// Load restores the payloads of id.
func (tx EntitiesTx) Load(ctx context.Context, id model.EntityID) error {
	e, err := tx.EntityByID(id)
	if err != nil {
		return err
	}
	start := time.Now()
	err = e.Load(ctx, tx.w.storage)
	tx.w.metrics.RecordLoad(time.Since(start), err)
	return err
}

// Unload persists and releases the payloads of id. On failure the entity
// stays resident.
func (tx EntitiesTx) Unload(ctx context.Context, id model.EntityID) error {
	e, ok := tx.w.entities[id]
	if !ok {
		return entityNotFound(id)
	}
	start := time.Now()
	n, err := e.Unload(ctx, tx.w.storage)
	tx.w.metrics.RecordUnload(time.Since(start), n, err)
	tx.w.logger.LogUnload(ctx, id, n, err)
	return err
}

// Annotation returns a copy of the named payload, loading it first when it
// is unloaded.
func (tx EntitiesTx) Annotation(ctx context.Context, id model.EntityID, name string) ([]byte, error) {
	as, err := tx.Annotations(id)
	if err != nil {
		return nil, err
	}
	a, ok := as.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: annotation %q of %s", ErrNotFound, name, id)
	}
	if a.IsUnloaded() {
		start := time.Now()
		err := a.Load(ctx, tx.w.storage)
		tx.w.metrics.RecordLoad(time.Since(start), err)
		if err != nil {
			return nil, err
		}
	}
	p, _ := a.Payload()
	return slices.Clone(p), nil
}

// FactorsView reads the factor container and the connectivity index.
type FactorsView struct {
	w *World
}

// FactorByID returns the live factor.
func (v FactorsView) FactorByID(id model.FactorID) (*factor.Factor, error) {
	f, ok := v.w.factors[id]
	if !ok {
		return nil, factorNotFound(id)
	}
	return f, nil
}

// AllIDs returns a detached snapshot of factor ids, ascending.
func (v FactorsView) AllIDs() []model.FactorID {
	ids := make([]model.FactorID, 0, len(v.w.factors))
	for id := range v.w.factors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// FactorsOf returns the ids of all factors touching entity id, ascending.
func (v FactorsView) FactorsOf(id model.EntityID) []model.FactorID {
	return v.w.index.Factors(id)
}

// Len returns the number of factors.
func (v FactorsView) Len() int {
	return len(v.w.factors)
}

// GraphView reads entities and factors together.
type GraphView struct {
	Entities EntitiesView
	Factors  FactorsView
}

// Neighbors returns every entity that shares at least one factor with id,
// excluding id, ascending.
func (v GraphView) Neighbors(id model.EntityID) ([]model.EntityID, error) {
	w := v.Entities.w
	if _, ok := w.entities[id]; !ok {
		return nil, entityNotFound(id)
	}
	return w.index.Neighbors(id, func(fid model.FactorID) []model.EntityID {
		if f, ok := w.factors[fid]; ok {
			return f.Entities()
		}
		return nil
	}), nil
}

// GraphTx mutates factors while entities are read-locked.
type GraphTx struct {
	GraphView
}

// EmplaceFactor checks that every referenced entity exists, assigns a fresh
// id and updates the connectivity index. Nothing is applied on error.
func (tx GraphTx) EmplaceFactor(f *factor.Factor) (model.FactorID, error) {
	start := time.Now()
	w := tx.Entities.w
	refs := f.Entities()

	var missing []model.EntityID
	for _, id := range refs {
		if _, ok := w.entities[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		err := &InconsistentError{Op: "insert " + f.Kind().String() + " factor", Missing: missing}
		w.metrics.RecordInsert("factor", time.Since(start), err)
		w.logger.LogInsert(context.Background(), "factor", 0, err)
		return model.InvalidID, err
	}

	id := w.factorIDs.Next()
	f.AssignID(id)
	w.factors[id] = f
	w.index.Add(id, refs)

	w.metrics.RecordInsert("factor", time.Since(start), nil)
	w.logger.LogInsert(context.Background(), "factor", uint64(id), nil)
	return id, nil
}

// PushFactor inserts a copy of f.
func (tx GraphTx) PushFactor(f *factor.Factor) (model.FactorID, error) {
	return tx.EmplaceFactor(f.Clone())
}

// RemoveFactor deletes a factor and its index entries.
func (tx GraphTx) RemoveFactor(id model.FactorID) error {
	w := tx.Entities.w
	f, ok := w.factors[id]
	if !ok {
		return factorNotFound(id)
	}
	delete(w.factors, id)
	w.index.Remove(id, f.Entities())
	return nil
}
