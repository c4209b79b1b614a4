package blobstore

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/worldmodel/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	BlobStore
	opens atomic.Int64
}

func (s *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	s.opens.Add(1)
	return s.BlobStore.Open(ctx, name)
}

func TestCachingStore(t *testing.T) {
	inner := &countingStore{BlobStore: NewMemoryStore()}
	rc := resource.NewController(resource.Config{})
	store := NewCachingStore(inner, 1024, rc)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", []byte("first")))

	for range 3 {
		got, err := ReadAll(ctx, store, "a")
		require.NoError(t, err)
		assert.Equal(t, "first", string(got))
	}
	assert.Equal(t, int64(1), inner.opens.Load())
	assert.Equal(t, int64(5), rc.MemoryUsage())

	hits, misses := store.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)

	// Put invalidates the cached copy.
	require.NoError(t, store.Put(ctx, "a", []byte("second")))
	got, err := ReadAll(ctx, store, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
	assert.Equal(t, int64(2), inner.opens.Load())

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Open(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}
