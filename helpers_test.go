package worldmodel_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/worldmodel/blobstore"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeClock is a settable clock for driving the eviction sweep.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: epoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to epoch plus d.
func (c *fakeClock) Set(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = epoch.Add(d)
}

var errBackendDown = errors.New("backend down")

// failingStore fails every Put whose name contains one of the patterns.
type failingStore struct {
	blobstore.BlobStore

	mu       sync.Mutex
	patterns []string
	puts     int
}

func newFailingStore(patterns ...string) *failingStore {
	return &failingStore{BlobStore: blobstore.NewMemoryStore(), patterns: patterns}
}

func (s *failingStore) SetPatterns(patterns ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = patterns
}

func (s *failingStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func (s *failingStore) Put(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	s.puts++
	for _, p := range s.patterns {
		if strings.Contains(name, p) {
			s.mu.Unlock()
			return errBackendDown
		}
	}
	s.mu.Unlock()
	return s.BlobStore.Put(ctx, name, data)
}
