package worldmodel_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/hupe1980/worldmodel"
	"github.com/hupe1980/worldmodel/blobstore"
	"github.com/hupe1980/worldmodel/codec"
	"github.com/hupe1980/worldmodel/entity"
	"github.com/hupe1980/worldmodel/factor"
	"github.com/hupe1980/worldmodel/internal/hash"
	"github.com/hupe1980/worldmodel/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T, w *worldmodel.World) (kf, pose, calib model.EntityID) {
	t.Helper()

	kf = w.EmplaceEntity(entity.NewKeyFrame(epoch,
		entity.Observation{Sensor: "lidar", Timestamp: epoch, Payload: []byte("cloud")},
		entity.Observation{Sensor: "camera", Timestamp: epoch.Add(time.Millisecond), Payload: []byte("image")},
	))
	pose = w.EmplaceEntity(entity.NewPose(epoch.Add(time.Second)))
	calib = w.EmplaceEntity(entity.NewCalibration(epoch))

	require.NoError(t, w.SetAnnotation(kf, "label", []byte("corridor")))
	require.NoError(t, w.SetAnnotation(calib, "intrinsics", []byte{1, 2, 3, 4}))

	f, err := factor.RelativePose(kf, pose)
	require.NoError(t, err)
	_, err = w.EmplaceFactor(f)
	require.NoError(t, err)
	_, err = w.EmplaceFactor(factor.Prior(calib))
	require.NoError(t, err)
	return kf, pose, calib
}

func TestSnapshot_RoundTrip(t *testing.T) {
	for _, c := range []codec.Compression{codec.None, codec.LZ4, codec.ZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			ctx := context.Background()
			store := blobstore.NewMemoryStore()

			w := worldmodel.New(worldmodel.WithStore(store), worldmodel.WithCompression(c))
			kf, pose, calib := buildGraph(t, w)

			name, err := w.SaveSnapshot(ctx)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			names, err := worldmodel.ListSnapshots(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, []string{name}, names)

			restored, err := worldmodel.OpenSnapshot(ctx, store)
			require.NoError(t, err)
			defer restored.Close()

			assert.Equal(t, []model.EntityID{kf, pose, calib}, restored.EntityIDs())
			assert.Len(t, restored.FactorIDs(), 2)
			assert.True(t, restored.ConnectivityConsistent())

			neighbors, err := restored.Neighbors(kf)
			require.NoError(t, err)
			assert.Equal(t, []model.EntityID{pose}, neighbors)

			stats := restored.Stats()
			assert.Equal(t, 3, stats.Unloaded)
			assert.Equal(t, 3, stats.Armed)

			got, err := restored.Annotation(ctx, calib, "intrinsics")
			require.NoError(t, err)
			assert.Equal(t, []byte{1, 2, 3, 4}, got)

			require.NoError(t, restored.Load(ctx, kf))
			e, err := restored.Entity(kf)
			require.NoError(t, err)
			assert.True(t, epoch.Equal(e.Timestamp()))
			obs, ok := e.KeyFrame().Observations()
			require.True(t, ok)
			require.Len(t, obs, 2)
			assert.Equal(t, "lidar", obs[0].Sensor)
			assert.Equal(t, []byte("cloud"), obs[0].Payload)

			// Id counters resume after the restored ids.
			next := restored.EmplaceEntity(entity.NewPose(epoch))
			assert.Greater(t, next, calib)
			fid, err := restored.EmplaceFactor(factor.Prior(next))
			require.NoError(t, err)
			assert.Equal(t, model.FactorID(3), fid)
		})
	}
}

func TestSnapshot_Inspect(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	clock := newFakeClock()
	clock.Set(time.Hour)

	w := worldmodel.New(worldmodel.WithStore(store), worldmodel.WithClock(clock.Now))
	defer w.Close()
	buildGraph(t, w)

	name, err := w.SaveSnapshot(ctx)
	require.NoError(t, err)

	info, err := worldmodel.InspectSnapshot(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, name, info.Name)
	assert.Equal(t, 3, info.Entities)
	assert.Equal(t, 2, info.Factors)
	assert.Equal(t, model.EntityID(3), info.LastEntityID)
	assert.Equal(t, model.FactorID(2), info.LastFactorID)
	assert.Equal(t, 1, info.ByKind[entity.KindKeyFrame])
	assert.True(t, clock.Now().Equal(info.Created))
	assert.Positive(t, info.Size)
}

func TestSnapshot_LatestWins(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	w := worldmodel.New(worldmodel.WithStore(store))
	defer w.Close()
	buildGraph(t, w)

	_, err := w.SaveSnapshot(ctx)
	require.NoError(t, err)
	w.EmplaceEntity(entity.NewPose(epoch))
	second, err := w.SaveSnapshot(ctx)
	require.NoError(t, err)

	names, err := worldmodel.ListSnapshots(ctx, store)
	require.NoError(t, err)
	assert.Len(t, names, 2)

	info, err := worldmodel.InspectSnapshot(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, second, info.Name)
	assert.Equal(t, 4, info.Entities)
}

func TestSnapshot_Missing(t *testing.T) {
	_, err := worldmodel.OpenSnapshot(context.Background(), blobstore.NewMemoryStore())
	require.ErrorIs(t, err, worldmodel.ErrNotFound)
}

func TestSnapshot_Corrupt(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		data func(valid []byte) []byte
	}{
		{name: "garbage", data: func([]byte) []byte { return []byte("not a snapshot") }},
		{name: "truncated", data: func(valid []byte) []byte { return valid[:len(valid)-3] }},
		{name: "flipped byte", data: func(valid []byte) []byte {
			out := slices.Clone(valid)
			out[len(out)/2] ^= 0x5a
			return out
		}},
		{name: "bad magic", data: func([]byte) []byte {
			frame, err := codec.Encode(hash.Append([]byte("WMSNAPXX\x01\x00\x00\x00")), codec.None)
			require.NoError(t, err)
			return frame
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			w := worldmodel.New(worldmodel.WithStore(store))
			buildGraph(t, w)
			name, err := w.SaveSnapshot(ctx)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			valid, err := blobstore.ReadAll(ctx, store, name)
			require.NoError(t, err)
			require.NoError(t, store.Put(ctx, name, tt.data(valid)))

			_, err = worldmodel.OpenSnapshot(ctx, store)
			require.ErrorIs(t, err, worldmodel.ErrCorruptSnapshot)
		})
	}
}

func TestSnapshot_StorageFailure(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore("snapshots/")

	w := worldmodel.New(worldmodel.WithStore(store))
	defer w.Close()
	buildGraph(t, w)

	_, err := w.SaveSnapshot(ctx)
	require.ErrorIs(t, err, worldmodel.ErrStorage)

	_, err = worldmodel.InspectSnapshot(ctx, store)
	require.ErrorIs(t, err, worldmodel.ErrNotFound)
}
