package blobstore

import (
	"context"

	"github.com/hupe1980/worldmodel/internal/cache"
	"github.com/hupe1980/worldmodel/resource"
)

// CachingStore wraps a BlobStore and keeps recently read blobs in memory.
//
// Blobs are cached whole: annotation frames are read in one piece when an
// entity is loaded, so block-level caching would only add bookkeeping.
type CachingStore struct {
	inner BlobStore
	cache *cache.LRU
}

// NewCachingStore creates a CachingStore with a byte budget of capacity.
// If rc is non-nil, cached bytes are accounted against it.
func NewCachingStore(inner BlobStore, capacity int64, rc *resource.Controller) *CachingStore {
	return &CachingStore{
		inner: inner,
		cache: cache.NewLRU(capacity, rc),
	}
}

// Open serves the blob from the cache, reading it fully from the inner store on a miss.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if data, ok := s.cache.Get(name); ok {
		return &memoryBlob{data: data}, nil
	}

	data, err := ReadAll(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, data)
	return &memoryBlob{data: data}, nil
}

// Put drops the cached copy and writes through to the inner store.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes the blob from the inner store and the cache.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List delegates to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns cache hit and miss counters.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}
