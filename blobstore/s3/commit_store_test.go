package s3

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/worldmodel/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommitStore(ddb DDBClient, baseURI string) *CommitStore {
	return NewCommitStore(NewStore(&MockS3Client{}, "test-bucket", "test"), ddb, "worldmodel-commits", baseURI)
}

func TestCommitStore_CurrentMissing(t *testing.T) {
	store := newTestCommitStore(newMockDDBClient(), "s3://test-bucket/test")

	_, err := store.Open(context.Background(), CurrentName)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	v, err := store.Version(context.Background())
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestCommitStore_PutAndReadCurrent(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newMockDDBClient(), "s3://test-bucket/test")

	require.NoError(t, store.Put(ctx, CurrentName, []byte("snapshots/a.wm")))
	require.NoError(t, store.Put(ctx, CurrentName, []byte("snapshots/b.wm")))

	data, err := blobstore.ReadAll(ctx, store, CurrentName)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/b.wm", string(data))

	v, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
}

func TestCommitStore_IsolatedByBaseURI(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	a := newTestCommitStore(ddb, "s3://bucket/a")
	b := newTestCommitStore(ddb, "s3://bucket/b")

	require.NoError(t, a.Put(ctx, CurrentName, []byte("x")))

	_, err := b.Open(ctx, CurrentName)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCommitStore_ConcurrentModification(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(&racingDDBClient{mockDDBClient: newMockDDBClient()}, "s3://bucket/race")

	err := store.Put(ctx, CurrentName, []byte("mine"))
	assert.ErrorIs(t, err, ErrConcurrentModification)

	data, err := blobstore.ReadAll(ctx, store, CurrentName)
	require.NoError(t, err)
	assert.Equal(t, "other", string(data))
}

func TestCommitStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newMockDDBClient(), "s3://bucket/concurrent")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Put(ctx, CurrentName, []byte(fmt.Sprintf("snap-%d", i)))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrConcurrentModification)
		}(i)
	}
	wg.Wait()

	v, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(succeeded), v)
}
