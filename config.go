package worldmodel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/hupe1980/worldmodel/blobstore"
	"github.com/hupe1980/worldmodel/blobstore/minio"
	"github.com/hupe1980/worldmodel/blobstore/s3"
	"github.com/hupe1980/worldmodel/blobstore/sqlite"
	"github.com/hupe1980/worldmodel/codec"
	"github.com/hupe1980/worldmodel/resource"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of a world model:
//
//	params:
//	  age_to_unload_keyframes: 15.0
//	  sweep_interval: 1s
//	  compression: zstd
//	  storage:
//	    kind: local
//	    dir: /var/lib/robot/world
//	    cache_bytes: 67108864
//	  resources:
//	    max_storage_workers: 4
//	    io_limit_bytes_per_sec: 33554432
//
// Environment variables in the file are expanded before parsing.
type Config struct {
	Params Params `yaml:"params"`
}

// Params holds the world model parameters.
type Params struct {
	// AgeToUnloadKeyframes is in seconds.
	AgeToUnloadKeyframes float64        `yaml:"age_to_unload_keyframes"`
	SweepInterval        time.Duration  `yaml:"sweep_interval"`
	Compression          string         `yaml:"compression"`
	LogLevel             string         `yaml:"log_level"`
	Storage              StorageConfig  `yaml:"storage"`
	Resources            ResourceConfig `yaml:"resources"`
}

// StorageConfig selects and configures the external store.
type StorageConfig struct {
	// Kind is one of memory, local, sqlite, s3 or minio.
	Kind string `yaml:"kind"`
	// Dir is the root directory (local) or database file (sqlite).
	Dir string `yaml:"dir"`

	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	Secure      bool   `yaml:"secure"`
	CommitTable string `yaml:"commit_table"`

	// CacheBytes, when positive, puts a read-through cache in front of the store.
	CacheBytes int64 `yaml:"cache_bytes"`
}

// ResourceConfig mirrors resource.Config. A zero worker count means one
// worker per CPU.
type ResourceConfig struct {
	MaxStorageWorkers  int64 `yaml:"max_storage_workers"`
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
	MemoryLimitBytes   int64 `yaml:"memory_limit_bytes"`
}

// DefaultConfig returns the configuration used when a key is absent.
func DefaultConfig() Config {
	return Config{
		Params: Params{
			AgeToUnloadKeyframes: DefaultAgeToUnload.Seconds(),
			SweepInterval:        DefaultSweepInterval,
			Compression:          codec.None.String(),
			Storage: StorageConfig{
				Kind: "memory",
			},
		},
	}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges and required storage fields.
func (c *Config) Validate() error {
	p := c.Params
	if p.AgeToUnloadKeyframes <= 0 {
		return fmt.Errorf("age_to_unload_keyframes must be positive, got %v", p.AgeToUnloadKeyframes)
	}
	if p.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive, got %v", p.SweepInterval)
	}
	if _, err := codec.ParseCompression(p.Compression); err != nil {
		return err
	}
	if _, err := parseLevel(p.LogLevel); err != nil {
		return err
	}

	s := p.Storage
	switch s.Kind {
	case "", "memory":
	case "local", "sqlite":
		if s.Dir == "" {
			return fmt.Errorf("storage.dir is required for %s storage", s.Kind)
		}
	case "s3":
		if s.Bucket == "" {
			return errors.New("storage.bucket is required for s3 storage")
		}
	case "minio":
		if s.Bucket == "" || s.Endpoint == "" {
			return errors.New("storage.bucket and storage.endpoint are required for minio storage")
		}
	default:
		return fmt.Errorf("unknown storage kind %q", s.Kind)
	}
	if s.CacheBytes < 0 {
		return errors.New("storage.cache_bytes must not be negative")
	}
	return nil
}

// AgeToUnload returns age_to_unload_keyframes as a duration.
func (c *Config) AgeToUnload() time.Duration {
	return time.Duration(c.Params.AgeToUnloadKeyframes * float64(time.Second))
}

// ResourceController builds the controller described by the resources block.
func (c *Config) ResourceController() *resource.Controller {
	r := c.Params.Resources
	workers := r.MaxStorageWorkers
	if workers <= 0 {
		workers = int64(runtime.GOMAXPROCS(0))
	}
	return resource.NewController(resource.Config{
		MaxStorageWorkers:  workers,
		IOLimitBytesPerSec: r.IOLimitBytesPerSec,
		MemoryLimitBytes:   r.MemoryLimitBytes,
	})
}

// OpenStore opens the configured store. The returned closer is nil when the
// store holds no resources.
func (c *Config) OpenStore(ctx context.Context, rc *resource.Controller) (blobstore.BlobStore, io.Closer, error) {
	s := c.Params.Storage

	var (
		store  blobstore.BlobStore
		closer io.Closer
	)
	switch s.Kind {
	case "", "memory":
		store = blobstore.NewMemoryStore()
	case "local":
		store = blobstore.NewLocalStore(s.Dir)
	case "sqlite":
		db, err := sqlite.New(s.Dir)
		if err != nil {
			return nil, nil, err
		}
		store, closer = db, db
	case "s3":
		opts := []s3.Option{s3.WithPrefix(s.Prefix)}
		if s.Region != "" {
			opts = append(opts, s3.WithRegion(s.Region))
		}
		var err error
		if s.CommitTable != "" {
			store, err = s3.NewWithCommitTable(ctx, s.Bucket, s.CommitTable, opts...)
		} else {
			store, err = s3.New(ctx, s.Bucket, opts...)
		}
		if err != nil {
			return nil, nil, err
		}
	case "minio":
		st, err := minio.New(ctx, s.Endpoint, s.Bucket,
			minio.WithCredentials(s.AccessKey, s.SecretKey),
			minio.WithSecure(s.Secure),
			minio.WithRegion(s.Region),
			minio.WithPrefix(s.Prefix),
		)
		if err != nil {
			return nil, nil, err
		}
		store = st
	default:
		return nil, nil, fmt.Errorf("unknown storage kind %q", s.Kind)
	}

	if s.CacheBytes > 0 {
		store = blobstore.NewCachingStore(store, s.CacheBytes, rc)
	}
	return store, closer, nil
}

// Options converts the configuration into World options, opening the store.
// Resources opened here are released by World.Close.
func (c *Config) Options(ctx context.Context) ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	compression, _ := codec.ParseCompression(c.Params.Compression)
	rc := c.ResourceController()

	store, closer, err := c.OpenStore(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", c.Params.Storage.Kind, err)
	}

	opts := []Option{
		WithStore(store),
		WithAgeToUnload(c.AgeToUnload()),
		WithSweepInterval(c.Params.SweepInterval),
		WithCompression(compression),
		WithResourceController(rc),
	}
	if closer != nil {
		opts = append(opts, withCloser(closer))
	}
	if c.Params.LogLevel != "" {
		level, _ := parseLevel(c.Params.LogLevel)
		opts = append(opts, WithLogger(NewTextLogger(level)))
	}
	return opts, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log_level %q", s)
}
