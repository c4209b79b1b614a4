package entity

import (
	"context"
	"fmt"
)

// Unload persists every resident payload and then releases it. For keyframes
// each observation is written individually and the collection is replaced by
// a manifest. If any write fails nothing is released and the error wraps
// ErrStorage. It returns the number of bytes written.
func (e *Entity) Unload(ctx context.Context, s *Storage) (int64, error) {
	var written int64

	names := e.annotations.Names()
	for _, name := range names {
		a := e.annotations[name]
		if a.unloaded {
			continue
		}
		n, err := a.persist(ctx, s, AnnotationPath(e.id, name))
		if err != nil {
			return written, fmt.Errorf("unload %s annotation %q: %w", e.id, name, err)
		}
		written += int64(n)
	}

	var manifest []ObservationRef
	kf := e.keyframe
	if kf != nil && !kf.released {
		manifest = make([]ObservationRef, 0, len(kf.observations))
		for i, o := range kf.observations {
			path := ObservationPath(e.id, i)
			n, err := s.put(ctx, path, o.Payload)
			if err != nil {
				return written, fmt.Errorf("unload %s observation %d: %w", e.id, i, err)
			}
			written += int64(n)
			manifest = append(manifest, ObservationRef{Sensor: o.Sensor, Timestamp: o.Timestamp, Path: path})
		}
	}

	for _, a := range e.annotations {
		if !a.unloaded {
			a.release()
		}
	}
	if kf != nil && !kf.released {
		kf.observations = nil
		kf.manifest = manifest
		kf.released = true
	}
	return written, nil
}

// Load restores every unloaded annotation and, for keyframes, the released
// observation collection. A missing blob is a hard failure wrapping ErrStorage.
func (e *Entity) Load(ctx context.Context, s *Storage) error {
	for _, name := range e.annotations.Names() {
		if err := e.annotations[name].Load(ctx, s); err != nil {
			return fmt.Errorf("load %s annotation %q: %w", e.id, name, err)
		}
	}

	kf := e.keyframe
	if kf == nil || !kf.released {
		return nil
	}
	observations := make([]Observation, 0, len(kf.manifest))
	for i, ref := range kf.manifest {
		payload, err := s.get(ctx, ref.Path)
		if err != nil {
			return fmt.Errorf("load %s observation %d: %w", e.id, i, err)
		}
		observations = append(observations, Observation{Sensor: ref.Sensor, Timestamp: ref.Timestamp, Payload: payload})
	}
	kf.observations = observations
	kf.manifest = nil
	kf.released = false
	return nil
}

// IsUnloaded reports whether every annotation is Unloaded and, for keyframes,
// the observation collection is released. A keyframe without observations
// depends on its annotations only.
func (e *Entity) IsUnloaded() bool {
	if !e.annotations.AllUnloaded() {
		return false
	}
	return e.keyframe == nil || e.keyframe.unloaded()
}
