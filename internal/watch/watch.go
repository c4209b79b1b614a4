// Package watch tracks per-entity last access times for the eviction sweep.
//
// Each entry is either Armed (eligible once its access time is older than the
// sweep cutoff) or Reported (already handed to the sweep, ignored until the
// entity is touched again). This gives evict-once, rearm-on-touch semantics.
package watch

import (
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/worldmodel/model"
)

// State is the watch state of one entity.
type State uint8

const (
	Armed State = iota
	Reported
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Reported:
		return "reported"
	default:
		return "unknown"
	}
}

// Entry is a snapshot of one watched entity.
type Entry struct {
	ID         model.EntityID
	LastAccess time.Time
	State      State
}

type entry struct {
	lastAccess time.Time
	state      State
}

// List is a mutex-guarded watch list, independent of the container locks.
type List struct {
	mu      sync.Mutex
	entries map[model.EntityID]*entry
}

// New returns an empty list.
func New() *List {
	return &List{entries: make(map[model.EntityID]*entry)}
}

// Touch records an access at now and arms the entry.
func (l *List) Touch(id model.EntityID, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok {
		l.entries[id] = &entry{lastAccess: now, state: Armed}
		return
	}
	if now.After(e.lastAccess) {
		e.lastAccess = now
	}
	e.state = Armed
}

// Expired reports every Armed entry last accessed strictly before cutoff and
// flips it to Reported. Results are ordered by id.
func (l *List) Expired(cutoff time.Time) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry
	for id, e := range l.entries {
		if e.state != Armed || !e.lastAccess.Before(cutoff) {
			continue
		}
		e.state = Reported
		out = append(out, Entry{ID: id, LastAccess: e.lastAccess, State: Reported})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Rearm puts a Reported entry back to Armed with lastAccess, so the next
// sweep sees it again. Entries touched since they were reported are left
// alone. It reports whether the entry was re-armed.
func (l *List) Rearm(id model.EntityID, lastAccess time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok || e.state != Reported {
		return false
	}
	e.state = Armed
	e.lastAccess = lastAccess
	return true
}

// Remove forgets id.
func (l *List) Remove(id model.EntityID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
}

// Get returns the entry for id.
func (l *List) Get(id model.EntityID) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{ID: id, LastAccess: e.lastAccess, State: e.state}, true
}

// Len returns the number of watched entities.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Counts returns the number of Armed and Reported entries.
func (l *List) Counts() (armed, reported int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.state == Armed {
			armed++
		} else {
			reported++
		}
	}
	return armed, reported
}
