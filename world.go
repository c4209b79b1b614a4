package worldmodel

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/worldmodel/entity"
	"github.com/hupe1980/worldmodel/factor"
	"github.com/hupe1980/worldmodel/internal/connectivity"
	"github.com/hupe1980/worldmodel/internal/lockorder"
	"github.com/hupe1980/worldmodel/internal/watch"
	"github.com/hupe1980/worldmodel/model"
)

// World is a concurrently accessed graph of entities and factors.
//
// Entities and factors are guarded by two independent reader/writer locks,
// always acquired entities first. The derived connectivity index is mutated
// only under the factors write lock. Access times for the eviction sweep
// live in a watch list with its own lock.
type World struct {
	guard lockorder.Guard

	entities map[model.EntityID]*entity.Entity
	factors  map[model.FactorID]*factor.Factor
	index    *connectivity.Index

	watch *watch.List

	entityIDs model.Allocator[model.EntityID]
	factorIDs model.Allocator[model.FactorID]

	opts    options
	storage *entity.Storage
	logger  *Logger
	metrics MetricsCollector

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// New creates an empty world model.
func New(optFns ...Option) *World {
	opts := applyOptions(optFns)

	w := &World{
		entities: make(map[model.EntityID]*entity.Entity),
		factors:  make(map[model.FactorID]*factor.Factor),
		index:    connectivity.New(),
		watch:    watch.New(),
		opts:     opts,
		logger:   opts.logger,
		metrics:  opts.metrics,
		done:     make(chan struct{}),
	}
	w.storage = &entity.Storage{
		Blobs:       opts.store,
		Compression: opts.compression,
		Throttle:    opts.rc.AcquireIO,
	}
	return w
}

func (w *World) now() time.Time {
	return w.opts.clock()
}

// ViewEntities runs fn holding the entities read lock.
func (w *World) ViewEntities(fn func(EntitiesView) error) error {
	return w.guard.Do(lockorder.EntitiesRead, func() error {
		return fn(EntitiesView{w: w})
	})
}

// UpdateEntities runs fn holding the entities write lock.
func (w *World) UpdateEntities(fn func(EntitiesTx) error) error {
	return w.guard.Do(lockorder.EntitiesWrite, func() error {
		return fn(EntitiesTx{EntitiesView{w: w}})
	})
}

// ViewFactors runs fn holding the factors read lock.
func (w *World) ViewFactors(fn func(FactorsView) error) error {
	return w.guard.Do(lockorder.FactorsRead, func() error {
		return fn(FactorsView{w: w})
	})
}

// ViewGraph runs fn holding the entities and factors read locks.
func (w *World) ViewGraph(fn func(GraphView) error) error {
	return w.guard.Do(lockorder.EntitiesRead|lockorder.FactorsRead, func() error {
		return fn(w.graphView())
	})
}

// UpdateGraph runs fn holding the entities read lock and the factors write lock.
func (w *World) UpdateGraph(fn func(GraphTx) error) error {
	return w.guard.Do(lockorder.EntitiesRead|lockorder.FactorsWrite, func() error {
		return fn(GraphTx{w.graphView()})
	})
}

func (w *World) graphView() GraphView {
	return GraphView{Entities: EntitiesView{w: w}, Factors: FactorsView{w: w}}
}

// EmplaceEntity inserts e and returns its fresh id.
func (w *World) EmplaceEntity(e *entity.Entity) model.EntityID {
	var id model.EntityID
	_ = w.UpdateEntities(func(tx EntitiesTx) error {
		id = tx.Emplace(e)
		return nil
	})
	return id
}

// PushEntity inserts a deep copy of e and returns the copy's id.
func (w *World) PushEntity(e *entity.Entity) model.EntityID {
	var id model.EntityID
	_ = w.UpdateEntities(func(tx EntitiesTx) error {
		id = tx.Push(e)
		return nil
	})
	return id
}

// EmplaceFactor inserts f after checking every referenced entity exists.
func (w *World) EmplaceFactor(f *factor.Factor) (model.FactorID, error) {
	var id model.FactorID
	err := w.UpdateGraph(func(tx GraphTx) error {
		var err error
		id, err = tx.EmplaceFactor(f)
		return err
	})
	return id, err
}

// PushFactor inserts a copy of f.
func (w *World) PushFactor(f *factor.Factor) (model.FactorID, error) {
	return w.EmplaceFactor(f.Clone())
}

// Entity returns a detached deep copy of the entity and touches its watch entry.
func (w *World) Entity(id model.EntityID) (*entity.Entity, error) {
	var out *entity.Entity
	err := w.ViewEntities(func(v EntitiesView) error {
		e, err := v.EntityByID(id)
		if err != nil {
			return err
		}
		out = e.Clone()
		return nil
	})
	return out, err
}

// Factor returns a detached copy of the factor.
func (w *World) Factor(id model.FactorID) (*factor.Factor, error) {
	var out *factor.Factor
	err := w.ViewFactors(func(v FactorsView) error {
		f, err := v.FactorByID(id)
		if err != nil {
			return err
		}
		out = f.Clone()
		return nil
	})
	return out, err
}

// EntityIDs returns a snapshot of all entity ids, ascending.
func (w *World) EntityIDs() []model.EntityID {
	var ids []model.EntityID
	_ = w.ViewEntities(func(v EntitiesView) error {
		ids = v.AllIDs()
		return nil
	})
	return ids
}

// FactorIDs returns a snapshot of all factor ids, ascending.
func (w *World) FactorIDs() []model.FactorID {
	var ids []model.FactorID
	_ = w.ViewFactors(func(v FactorsView) error {
		ids = v.AllIDs()
		return nil
	})
	return ids
}

// Neighbors returns every entity sharing at least one factor with id.
func (w *World) Neighbors(id model.EntityID) ([]model.EntityID, error) {
	var out []model.EntityID
	err := w.ViewGraph(func(v GraphView) error {
		var err error
		out, err = v.Neighbors(id)
		return err
	})
	return out, err
}

// RemoveFactor deletes a factor and its connectivity entries.
func (w *World) RemoveFactor(id model.FactorID) error {
	return w.UpdateGraph(func(tx GraphTx) error {
		return tx.RemoveFactor(id)
	})
}

// RemoveEntity deletes an entity. It fails with ErrInconsistent while any
// factor still references it. Externally stored payloads are left in place.
func (w *World) RemoveEntity(id model.EntityID) error {
	return w.guard.Do(lockorder.EntitiesWrite|lockorder.FactorsRead, func() error {
		if _, ok := w.entities[id]; !ok {
			return entityNotFound(id)
		}
		if refs := w.index.Factors(id); len(refs) > 0 {
			return &InconsistentError{Op: "remove " + id.String(), Referencing: refs}
		}
		delete(w.entities, id)
		w.watch.Remove(id)
		return nil
	})
}

// Load restores the payloads of one entity from external storage.
func (w *World) Load(ctx context.Context, id model.EntityID) error {
	return w.UpdateEntities(func(tx EntitiesTx) error {
		return tx.Load(ctx, id)
	})
}

// Unload moves the payloads of one entity to external storage.
func (w *World) Unload(ctx context.Context, id model.EntityID) error {
	return w.UpdateEntities(func(tx EntitiesTx) error {
		return tx.Unload(ctx, id)
	})
}

// Annotation returns a copy of the named payload, loading it on demand.
func (w *World) Annotation(ctx context.Context, id model.EntityID, name string) ([]byte, error) {
	var out []byte
	err := w.UpdateEntities(func(tx EntitiesTx) error {
		var err error
		out, err = tx.Annotation(ctx, id, name)
		return err
	})
	return out, err
}

// SetAnnotation stores payload under name on entity id as Resident.
func (w *World) SetAnnotation(id model.EntityID, name string, payload []byte) error {
	return w.UpdateEntities(func(tx EntitiesTx) error {
		as, err := tx.Annotations(id)
		if err != nil {
			return err
		}
		as.Set(name, payload)
		return nil
	})
}

// RebuildConnectivity recomputes the connectivity index from the factors.
func (w *World) RebuildConnectivity() {
	_ = w.guard.Do(lockorder.FactorsWrite, func() error {
		w.index = connectivity.Rebuild(w.factors)
		return nil
	})
}

// ConnectivityConsistent reports whether the live index equals a rebuild
// from the factors.
func (w *World) ConnectivityConsistent() bool {
	var ok bool
	_ = w.guard.Do(lockorder.FactorsRead, func() error {
		ok = connectivity.Rebuild(w.factors).Equal(w.index)
		return nil
	})
	return ok
}

// Stats summarizes the world model.
type Stats struct {
	Entities      int
	Factors       int
	Resident      int
	Unloaded      int
	ResidentBytes int64
	ByKind        map[entity.Kind]int
	Armed         int
	Reported      int
}

// Stats returns counts of entities, factors and watch states.
func (w *World) Stats() Stats {
	s := Stats{ByKind: make(map[entity.Kind]int)}
	_ = w.guard.Do(lockorder.EntitiesRead|lockorder.FactorsRead, func() error {
		s.Entities = len(w.entities)
		s.Factors = len(w.factors)
		for _, e := range w.entities {
			s.ByKind[e.Kind()]++
			if e.IsUnloaded() {
				s.Unloaded++
			} else {
				s.Resident++
			}
			s.ResidentBytes += e.ResidentBytes()
		}
		return nil
	})
	s.Armed, s.Reported = w.watch.Counts()
	return s
}

// Close stops Run and releases resources registered through the options.
// It is safe to call Close more than once.
func (w *World) Close() error {
	if w == nil {
		return nil
	}
	var errs []error
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		close(w.done)
		for _, c := range w.opts.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

var _ io.Closer = (*World)(nil)
