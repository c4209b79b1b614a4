package entity

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hupe1980/worldmodel/blobstore"
	"github.com/hupe1980/worldmodel/codec"
	"github.com/hupe1980/worldmodel/model"
)

// Storage is where payloads go when they are unloaded.
type Storage struct {
	// Blobs receives one blob per payload.
	Blobs blobstore.BlobStore

	// Compression is applied to payload frames on write.
	Compression codec.Compression

	// Throttle, if set, is called with the frame size before every write.
	Throttle func(ctx context.Context, n int) error
}

// AnnotationPath is the path derived for an annotation without one. The name
// is escaped into a single path segment, so distinct names never share a blob.
func AnnotationPath(id model.EntityID, name string) string {
	return fmt.Sprintf("annotations/%d/%s", uint64(id), pathSegment(name))
}

// pathSegment escapes name so that it never contains a separator and never
// cleans away. PathEscape leaves dots alone and never emits a lone "%".
func pathSegment(name string) string {
	switch name {
	case "":
		return "%"
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return url.PathEscape(name)
}

// ObservationPath is the path of the i-th observation of a keyframe.
func ObservationPath(id model.EntityID, i int) string {
	return fmt.Sprintf("observations/%d/%06d", uint64(id), i)
}

func (s *Storage) ready() error {
	if s == nil || s.Blobs == nil {
		return fmt.Errorf("%w: %w", ErrStorage, ErrNoStorage)
	}
	return nil
}

// put writes payload under path and returns the number of bytes stored.
func (s *Storage) put(ctx context.Context, path string, payload []byte) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	frame, err := codec.Encode(payload, s.Compression)
	if err != nil {
		return 0, fmt.Errorf("%w: encode %s: %w", ErrStorage, path, err)
	}
	if s.Throttle != nil {
		if err := s.Throttle(ctx, len(frame)); err != nil {
			return 0, fmt.Errorf("%w: throttle %s: %w", ErrStorage, path, err)
		}
	}
	if err := s.Blobs.Put(ctx, path, frame); err != nil {
		return 0, fmt.Errorf("%w: write %s: %w", ErrStorage, path, err)
	}
	return len(frame), nil
}

func (s *Storage) get(ctx context.Context, path string) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	frame, err := blobstore.ReadAll(ctx, s.Blobs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorage, path, err)
	}
	payload, err := codec.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrStorage, path, err)
	}
	return payload, nil
}
