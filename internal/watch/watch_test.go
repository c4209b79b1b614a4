package watch

import (
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/worldmodel/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(1_700_000_000, 0)

func at(sec float64) time.Time {
	return epoch.Add(time.Duration(sec * float64(time.Second)))
}

func ids(entries []Entry) []model.EntityID {
	out := make([]model.EntityID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestEvictOnceRearmOnTouch(t *testing.T) {
	const age = 5 * time.Second
	l := New()
	l.Touch(1, at(0))

	// t=4: not yet eligible.
	assert.Empty(t, l.Expired(at(4).Add(-age)))

	// t=6: eligible and reported.
	got := l.Expired(at(6).Add(-age))
	require.Len(t, got, 1)
	assert.Equal(t, model.EntityID(1), got[0].ID)
	assert.Equal(t, at(0), got[0].LastAccess)

	// t=7: already reported, no repeat.
	assert.Empty(t, l.Expired(at(7).Add(-age)))

	// Touched at t=6.5, the window restarts.
	l.Touch(1, at(6.5))
	assert.Empty(t, l.Expired(at(7).Add(-age)))
	assert.Empty(t, l.Expired(at(11).Add(-age)))
	assert.Equal(t, []model.EntityID{1}, ids(l.Expired(at(11.6).Add(-age))))
}

func TestExpiredIsStrict(t *testing.T) {
	l := New()
	l.Touch(1, at(0))

	assert.Empty(t, l.Expired(at(0)))
	assert.Len(t, l.Expired(at(0).Add(time.Nanosecond)), 1)
}

func TestExpiredSortedByID(t *testing.T) {
	l := New()
	for _, id := range []model.EntityID{9, 3, 7, 1} {
		l.Touch(id, at(0))
	}
	l.Touch(5, at(10))

	assert.Equal(t, []model.EntityID{1, 3, 7, 9}, ids(l.Expired(at(5))))

	armed, reported := l.Counts()
	assert.Equal(t, 1, armed)
	assert.Equal(t, 4, reported)
}

func TestRearm(t *testing.T) {
	l := New()
	l.Touch(1, at(0))
	require.Len(t, l.Expired(at(10)), 1)

	assert.True(t, l.Rearm(1, at(0)))
	e, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, Armed, e.State)
	assert.Equal(t, at(0), e.LastAccess)

	// Next sweep retries it.
	assert.Len(t, l.Expired(at(10)), 1)

	// A touch between report and rearm wins.
	l.Touch(1, at(12))
	assert.False(t, l.Rearm(1, at(0)))
	e, _ = l.Get(1)
	assert.Equal(t, at(12), e.LastAccess)

	assert.False(t, l.Rearm(42, at(0)))
}

func TestTouchNeverMovesBackwards(t *testing.T) {
	l := New()
	l.Touch(1, at(5))
	l.Touch(1, at(3))

	e, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, at(5), e.LastAccess)
}

func TestRemove(t *testing.T) {
	l := New()
	l.Touch(1, at(0))
	l.Touch(2, at(0))
	l.Remove(1)

	assert.Equal(t, 1, l.Len())
	_, ok := l.Get(1)
	assert.False(t, ok)
	assert.Equal(t, []model.EntityID{2}, ids(l.Expired(at(1))))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "armed", Armed.String())
	assert.Equal(t, "reported", Reported.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestConcurrentTouchAndExpire(t *testing.T) {
	l := New()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				l.Touch(model.EntityID(g*1000+i), at(float64(i%10)))
			}
		}(g)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			l.Expired(at(5))
		}
	}()
	wg.Wait()

	assert.Equal(t, 4000, l.Len())
	armed, reported := l.Counts()
	assert.Equal(t, 4000, armed+reported)
}
