package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/worldmodel"
	"github.com/hupe1980/worldmodel/blobstore"
	"github.com/hupe1980/worldmodel/entity"
	"github.com/hupe1980/worldmodel/factor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	w := worldmodel.New(worldmodel.WithStore(blobstore.NewLocalStore(dir)))
	defer w.Close()

	now := time.Now()
	a := w.EmplaceEntity(entity.NewKeyFrame(now, entity.Observation{Sensor: "lidar", Payload: []byte("x")}))
	b := w.EmplaceEntity(entity.NewPose(now))
	f, err := factor.RelativePose(a, b)
	require.NoError(t, err)
	_, err = w.EmplaceFactor(f)
	require.NoError(t, err)

	name, err := w.SaveSnapshot(context.Background())
	require.NoError(t, err)
	return name
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "wmctl", cmd.Use)

	for _, name := range []string{"inspect", "snapshots", "config"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "config", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInspect_Text(t *testing.T) {
	dir := t.TempDir()
	name := writeSnapshot(t, dir)

	out, err := execute(t, "inspect", dir)
	require.NoError(t, err)
	assert.Contains(t, out, name)
	assert.Contains(t, out, "entities:")
	assert.Contains(t, out, "keyframe:")
	assert.Contains(t, out, "factors:")
}

func TestInspect_JSON(t *testing.T) {
	dir := t.TempDir()
	name := writeSnapshot(t, dir)

	out, err := execute(t, "inspect", dir, "--format", "json")
	require.NoError(t, err)

	var res InspectResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, name, res.Name)
	assert.Equal(t, 2, res.Entities)
	assert.Equal(t, 1, res.Factors)
	assert.Equal(t, 1, res.ByKind["pose"])
	assert.Equal(t, uint64(2), res.LastEntityID)
}

func TestInspect_ViaConfig(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir)

	cfgPath := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("params:\n  storage:\n    kind: local\n    dir: "+dir+"\n"), 0o600))

	out, err := execute(t, "inspect", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "snapshots/")
}

func TestInspect_NoSnapshot(t *testing.T) {
	_, err := execute(t, "inspect", t.TempDir())
	require.ErrorIs(t, err, worldmodel.ErrNotFound)

	_, err = execute(t, "inspect")
	require.Error(t, err)
}

func TestSnapshots(t *testing.T) {
	dir := t.TempDir()
	name := writeSnapshot(t, dir)

	out, err := execute(t, "snapshots", dir)
	require.NoError(t, err)
	assert.Equal(t, name+"\n", out)
}

func TestConfig(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "age_to_unload_keyframes: 15")
	assert.Contains(t, out, "kind: memory")

	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte("params:\n  compression: zstd\n  storage:\n    kind: minio\n    endpoint: localhost:9000\n    bucket: maps\n    secret_key: hunter2\n"), 0o600))

	out, err = execute(t, "config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "compression: zstd")
	assert.Contains(t, out, "endpoint: localhost:9000")
	assert.NotContains(t, out, "hunter2")
}
