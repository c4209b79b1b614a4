package entity

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/worldmodel/internal/wire"
	"github.com/hupe1980/worldmodel/model"
)

// maxAnnotations bounds decoded annotation counts.
const maxAnnotations = 1 << 16

// Encode writes the entity record to w. Every resident annotation is unloaded
// through s first so that the record carries paths only. Keyframe
// observations are not part of the record.
func (e *Entity) Encode(ctx context.Context, w io.Writer, s *Storage) error {
	names := e.annotations.Names()
	for _, name := range names {
		if err := e.annotations[name].Unload(ctx, s, AnnotationPath(e.id, name)); err != nil {
			return fmt.Errorf("encode %s annotation %q: %w", e.id, name, err)
		}
	}

	ww := wire.NewWriter(w)
	ww.U64(uint64(e.id))
	ww.Time(e.timestamp)
	ww.Len(len(names))
	for _, name := range names {
		ww.String(name)
		ww.String(e.annotations[name].path)
	}
	if err := ww.Err(); err != nil {
		return fmt.Errorf("encode %s: %w", e.id, err)
	}
	return nil
}

// Decode reads one entity record of the given kind. All annotations come back
// Unloaded, pointing at their recorded paths.
func Decode(r io.Reader, kind Kind) (*Entity, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("decode entity: %w: unknown kind %d", wire.ErrCorrupt, uint8(kind))
	}

	rr := wire.NewReader(r)
	id := model.EntityID(rr.U64())
	ts := rr.Time()
	n := rr.Count(maxAnnotations)

	e := New(kind, ts)
	e.id = id
	for i := 0; i < n && rr.Err() == nil; i++ {
		name := rr.String()
		path := rr.String()
		if rr.Err() != nil {
			break
		}
		if _, dup := e.annotations[name]; dup {
			rr.Fail(fmt.Errorf("%w: duplicate annotation %q", wire.ErrCorrupt, name))
			break
		}
		e.annotations[name] = External(path)
	}
	if err := rr.Err(); err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}
	if kind == KindKeyFrame {
		e.keyframe.released = true
	}
	return e, nil
}
