package worldmodel

import (
	"io"
	"runtime"
	"time"

	"github.com/hupe1980/worldmodel/blobstore"
	"github.com/hupe1980/worldmodel/codec"
	"github.com/hupe1980/worldmodel/resource"
)

const (
	// DefaultAgeToUnload is the default age after which an untouched entity
	// is unloaded.
	DefaultAgeToUnload = 15 * time.Second

	// DefaultSweepInterval is the default period of Run.
	DefaultSweepInterval = time.Second
)

type options struct {
	store         blobstore.BlobStore
	ageToUnload   time.Duration
	sweepInterval time.Duration
	clock         func() time.Time
	logger        *Logger
	metrics       MetricsCollector
	rc            *resource.Controller
	compression   codec.Compression
	closers       []io.Closer
}

// Option configures a World.
type Option func(*options)

// WithStore sets the external storage that receives unloaded payloads and
// snapshots. Defaults to an in-memory store.
func WithStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAgeToUnload sets how long an entity may stay untouched before the
// sweep unloads it.
func WithAgeToUnload(age time.Duration) Option {
	return func(o *options) {
		o.ageToUnload = age
	}
}

// WithSweepInterval sets the period of Run.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweepInterval = d
	}
}

// WithClock replaces time.Now. Tests use it to drive eviction deterministically.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithLogger sets the logger. If nil, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithResourceController bounds unload concurrency and storage throughput.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithCompression sets the payload compression used on unload.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// withCloser registers a resource closed by World.Close.
func withCloser(c io.Closer) Option {
	return func(o *options) {
		o.closers = append(o.closers, c)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		ageToUnload:   DefaultAgeToUnload,
		sweepInterval: DefaultSweepInterval,
		clock:         time.Now,
		compression:   codec.None,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.store == nil {
		o.store = blobstore.NewMemoryStore()
	}
	if o.logger == nil {
		o.logger = NewLogger(nil)
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	if o.rc == nil {
		o.rc = resource.NewController(resource.Config{
			MaxStorageWorkers: int64(runtime.GOMAXPROCS(0)),
		})
	}
	if o.sweepInterval <= 0 {
		o.sweepInterval = DefaultSweepInterval
	}
	return o
}
