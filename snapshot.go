package worldmodel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/worldmodel/blobstore"
	"github.com/hupe1980/worldmodel/codec"
	"github.com/hupe1980/worldmodel/entity"
	"github.com/hupe1980/worldmodel/factor"
	"github.com/hupe1980/worldmodel/internal/connectivity"
	"github.com/hupe1980/worldmodel/internal/hash"
	"github.com/hupe1980/worldmodel/internal/lockorder"
	"github.com/hupe1980/worldmodel/internal/wire"
	"github.com/hupe1980/worldmodel/model"
)

const (
	snapshotMagic   = "WMSNAP01"
	snapshotVersion = 1

	// CurrentSnapshot names the blob holding the name of the latest snapshot.
	CurrentSnapshot = "CURRENT"

	snapshotPrefix = "snapshots/"
	maxRecords     = 1 << 28
)

// SnapshotInfo describes a stored snapshot.
type SnapshotInfo struct {
	Name         string
	Created      time.Time
	Entities     int
	Factors      int
	LastEntityID model.EntityID
	LastFactorID model.FactorID
	ByKind       map[entity.Kind]int
	Size         int64
}

type snapshot struct {
	created    time.Time
	lastEntity model.EntityID
	lastFactor model.FactorID
	entities   []*entity.Entity
	factors    []*factor.Factor
}

// SaveSnapshot persists the whole graph and points CURRENT at it. Every
// entity is unloaded first, so the snapshot holds ids, timestamps, paths and
// factors but no payload bytes.
func (w *World) SaveSnapshot(ctx context.Context) (string, error) {
	if w.closed.Load() {
		return "", ErrClosed
	}

	start := time.Now()
	name := snapshotPrefix + uuid.NewString() + ".wm"

	data, err := w.encodeSnapshot(ctx)
	if err == nil {
		err = w.writeSnapshot(ctx, name, data)
	}

	w.metrics.RecordSnapshot(time.Since(start), int64(len(data)), err)
	w.logger.LogSnapshot(ctx, "save", name, err)
	if err != nil {
		return "", err
	}
	return name, nil
}

func (w *World) encodeSnapshot(ctx context.Context) ([]byte, error) {
	unlock := w.guard.Lock(lockorder.EntitiesWrite | lockorder.FactorsRead)
	defer unlock()

	var buf bytes.Buffer
	ww := wire.NewWriter(&buf)
	ww.Raw([]byte(snapshotMagic))
	ww.U32(snapshotVersion)
	ww.Time(w.now())
	ww.U64(uint64(w.entityIDs.Last()))
	ww.U64(uint64(w.factorIDs.Last()))

	ids := EntitiesView{w: w}.AllIDs()
	ww.Len(len(ids))
	for _, id := range ids {
		e := w.entities[id]
		if _, err := e.Unload(ctx, w.storage); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		ww.U8(uint8(e.Kind()))
		if err := e.Encode(ctx, &buf, w.storage); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		if kf := e.KeyFrame(); kf != nil {
			if err := kf.EncodeManifest(&buf); err != nil {
				return nil, fmt.Errorf("snapshot: %w", err)
			}
		}
	}

	fids := FactorsView{w: w}.AllIDs()
	ww.Len(len(fids))
	for _, id := range fids {
		if err := w.factors[id].Encode(&buf); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}
	if err := ww.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	return codec.Encode(hash.Append(buf.Bytes()), w.opts.compression)
}

func (w *World) writeSnapshot(ctx context.Context, name string, data []byte) error {
	if err := w.opts.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	if err := w.opts.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("%w: write snapshot %s: %w", ErrStorage, name, err)
	}
	if err := w.opts.store.Put(ctx, CurrentSnapshot, []byte(name)); err != nil {
		return fmt.Errorf("%w: update %s: %w", ErrStorage, CurrentSnapshot, err)
	}
	return nil
}

// OpenSnapshot restores the world model CURRENT points at in store. Entities
// come back unloaded and armed at the current time. Id counters resume
// after the highest ids in the snapshot and the connectivity index is
// rebuilt from the factors. On failure every closer handed in through the
// options is closed.
func OpenSnapshot(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (_ *World, err error) {
	w := New(append(slices.Clone(optFns), WithStore(store))...)
	defer func() {
		if err != nil {
			if cerr := w.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
	}()

	name, snap, _, err := readCurrent(ctx, store)
	if err != nil {
		w.logger.LogSnapshot(ctx, "open", name, err)
		return nil, err
	}

	now := w.now()
	for _, e := range snap.entities {
		w.entities[e.ID()] = e
		w.watch.Touch(e.ID(), now)
	}
	factors := make(map[model.FactorID]*factor.Factor, len(snap.factors))
	for _, f := range snap.factors {
		for _, id := range f.Entities() {
			if _, ok := w.entities[id]; !ok {
				err := fmt.Errorf("%w: %w", ErrCorruptSnapshot, &InconsistentError{Op: "restore " + f.ID().String(), Missing: []model.EntityID{id}})
				w.logger.LogSnapshot(ctx, "open", name, err)
				return nil, err
			}
		}
		factors[f.ID()] = f
	}
	w.factors = factors
	w.index = connectivity.Rebuild(factors)
	w.entityIDs.Restore(snap.lastEntity)
	w.factorIDs.Restore(snap.lastFactor)

	w.logger.LogSnapshot(ctx, "open", name, nil)
	return w, nil
}

// InspectSnapshot decodes the snapshot CURRENT points at without building a
// world model.
func InspectSnapshot(ctx context.Context, store blobstore.BlobStore) (*SnapshotInfo, error) {
	name, snap, size, err := readCurrent(ctx, store)
	if err != nil {
		return nil, err
	}
	info := &SnapshotInfo{
		Name:         name,
		Created:      snap.created,
		Entities:     len(snap.entities),
		Factors:      len(snap.factors),
		LastEntityID: snap.lastEntity,
		LastFactorID: snap.lastFactor,
		ByKind:       make(map[entity.Kind]int),
		Size:         size,
	}
	for _, e := range snap.entities {
		info.ByKind[e.Kind()]++
	}
	return info, nil
}

// ListSnapshots returns the names of all stored snapshots.
func ListSnapshots(ctx context.Context, store blobstore.BlobStore) ([]string, error) {
	names, err := store.List(ctx, snapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list snapshots: %w", ErrStorage, err)
	}
	return names, nil
}

func readCurrent(ctx context.Context, store blobstore.BlobStore) (string, *snapshot, int64, error) {
	raw, err := blobstore.ReadAll(ctx, store, CurrentSnapshot)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", nil, 0, fmt.Errorf("%w: no snapshot: %w", ErrNotFound, err)
		}
		return "", nil, 0, fmt.Errorf("%w: read %s: %w", ErrStorage, CurrentSnapshot, err)
	}
	name := strings.TrimSpace(string(raw))

	frame, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return name, nil, 0, fmt.Errorf("%w: read snapshot %s: %w", ErrStorage, name, err)
	}
	data, err := codec.Decode(frame)
	if err != nil {
		return name, nil, 0, fmt.Errorf("%w: %s: %w", ErrCorruptSnapshot, name, err)
	}
	body, err := hash.Split(data)
	if err != nil {
		return name, nil, 0, fmt.Errorf("%w: %s: %w", ErrCorruptSnapshot, name, err)
	}
	snap, err := decodeSnapshot(body)
	if err != nil {
		return name, nil, 0, fmt.Errorf("%w: %s: %w", ErrCorruptSnapshot, name, err)
	}
	return name, snap, int64(len(frame)), nil
}

func decodeSnapshot(data []byte) (*snapshot, error) {
	r := bytes.NewReader(data)
	rr := wire.NewReader(r)

	magic := make([]byte, len(snapshotMagic))
	rr.Raw(magic)
	if rr.Err() == nil && string(magic) != snapshotMagic {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	if v := rr.U32(); rr.Err() == nil && v != snapshotVersion {
		return nil, fmt.Errorf("unsupported version %d", v)
	}

	snap := &snapshot{
		created:    rr.Time(),
		lastEntity: model.EntityID(rr.U64()),
		lastFactor: model.FactorID(rr.U64()),
	}

	n := rr.Count(maxRecords)
	if err := rr.Err(); err != nil {
		return nil, err
	}
	snap.entities = make([]*entity.Entity, 0, n)
	seenEntities := make(map[model.EntityID]struct{}, n)
	for i := 0; i < n; i++ {
		kind := entity.Kind(rr.U8())
		if err := rr.Err(); err != nil {
			return nil, err
		}
		e, err := entity.Decode(r, kind)
		if err != nil {
			return nil, err
		}
		if kf := e.KeyFrame(); kf != nil {
			if err := kf.DecodeManifest(r); err != nil {
				return nil, err
			}
		}
		if e.ID() == model.InvalidID || e.ID() > snap.lastEntity {
			return nil, fmt.Errorf("entity id %d outside allocated range", e.ID())
		}
		if _, dup := seenEntities[e.ID()]; dup {
			return nil, fmt.Errorf("duplicate entity id %d", e.ID())
		}
		seenEntities[e.ID()] = struct{}{}
		snap.entities = append(snap.entities, e)
	}

	m := rr.Count(maxRecords)
	if err := rr.Err(); err != nil {
		return nil, err
	}
	snap.factors = make([]*factor.Factor, 0, m)
	seenFactors := make(map[model.FactorID]struct{}, m)
	for i := 0; i < m; i++ {
		f, err := factor.Decode(r)
		if err != nil {
			return nil, err
		}
		if f.ID() == model.InvalidID || f.ID() > snap.lastFactor {
			return nil, fmt.Errorf("factor id %d outside allocated range", f.ID())
		}
		if _, dup := seenFactors[f.ID()]; dup {
			return nil, fmt.Errorf("duplicate factor id %d", f.ID())
		}
		seenFactors[f.ID()] = struct{}{}
		snap.factors = append(snap.factors, f)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.Len())
	}
	return snap, nil
}
