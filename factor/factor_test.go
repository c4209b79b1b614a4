package factor

import (
	"bytes"
	"testing"

	"github.com/hupe1980/worldmodel/internal/wire"
	"github.com/hupe1980/worldmodel/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArity(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		ids     []model.EntityID
		wantErr bool
	}{
		{"prior", KindPrior, []model.EntityID{1}, false},
		{"prior two", KindPrior, []model.EntityID{1, 2}, true},
		{"relative", KindRelativePose, []model.EntityID{1, 2}, false},
		{"relative one", KindRelativePose, []model.EntityID{1}, true},
		{"relative self loop", KindRelativePose, []model.EntityID{1, 1}, true},
		{"constraint many", KindConstraint, []model.EntityID{1, 2, 3, 4}, false},
		{"constraint empty", KindConstraint, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.kind, tt.ids...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrArity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, f.Kind())
		})
	}

	_, err := New(Kind(42), 1)
	assert.Error(t, err)
}

func TestEntitiesIsCopy(t *testing.T) {
	f, err := RelativePose(1, 2)
	require.NoError(t, err)

	ids := f.Entities()
	ids[0] = 99
	assert.Equal(t, []model.EntityID{1, 2}, f.Entities())
	assert.True(t, f.Touches(2))
	assert.False(t, f.Touches(99))
}

func TestNewDeduplicates(t *testing.T) {
	f, err := New(KindConstraint, 3, 1, 3, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.EntityID{3, 1, 2}, f.Entities())
}

func TestRecordRoundTrip(t *testing.T) {
	f, err := New(KindConstraint, 5, 6, 7)
	require.NoError(t, err)
	f.AssignID(11)

	var buf bytes.Buffer
	require.NoError(t, f.Encode(&buf))
	assert.Equal(t, 8+1+4+3*8, buf.Len())

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, model.FactorID(11), got.ID())
	assert.Equal(t, KindConstraint, got.Kind())
	assert.Equal(t, f.Entities(), got.Entities())
}

func TestDecodeRejectsBadArity(t *testing.T) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	w.U64(1)
	w.U8(uint8(KindPrior))
	w.U32(2)
	w.U64(1)
	w.U64(2)

	_, err := Decode(&buf)
	assert.ErrorIs(t, err, wire.ErrCorrupt)
	assert.ErrorIs(t, err, ErrArity)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{1, 0, 0}))
	assert.ErrorIs(t, err, wire.ErrCorrupt)
}

func TestClone(t *testing.T) {
	f := Prior(4)
	f.AssignID(2)
	c := f.Clone()
	assert.Equal(t, f.ID(), c.ID())
	assert.Equal(t, f.Entities(), c.Entities())
	assert.Equal(t, "prior", c.Kind().String())
	assert.Equal(t, "relative_pose", KindRelativePose.String())
}
