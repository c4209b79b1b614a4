package worldmodel

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each entity or factor insertion.
	RecordInsert(kind string, duration time.Duration, err error)

	// RecordUnload is called for every entity the sweep tries to unload.
	RecordUnload(duration time.Duration, bytes int64, err error)

	// RecordLoad is called after each explicit or on-demand load.
	RecordLoad(duration time.Duration, err error)

	// RecordSweep is called after each eviction sweep.
	RecordSweep(report SweepReport, err error)

	// RecordSnapshot is called after each snapshot save.
	RecordSnapshot(duration time.Duration, bytes int64, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(string, time.Duration, error)  {}
func (NoopMetricsCollector) RecordUnload(time.Duration, int64, error)   {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)            {}
func (NoopMetricsCollector) RecordSweep(SweepReport, error)             {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, int64, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	EntityInserts    atomic.Int64
	FactorInserts    atomic.Int64
	InsertErrors     atomic.Int64
	Unloads          atomic.Int64
	UnloadErrors     atomic.Int64
	UnloadBytes      atomic.Int64
	UnloadTotalNanos atomic.Int64
	Loads            atomic.Int64
	LoadErrors       atomic.Int64
	Sweeps           atomic.Int64
	SweepErrors      atomic.Int64
	SweepExpired     atomic.Int64
	Snapshots        atomic.Int64
	SnapshotErrors   atomic.Int64
	SnapshotBytes    atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(kind string, _ time.Duration, err error) {
	if err != nil {
		b.InsertErrors.Add(1)
		return
	}
	if kind == "factor" {
		b.FactorInserts.Add(1)
	} else {
		b.EntityInserts.Add(1)
	}
}

// RecordUnload implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUnload(duration time.Duration, bytes int64, err error) {
	b.Unloads.Add(1)
	b.UnloadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.UnloadErrors.Add(1)
		return
	}
	b.UnloadBytes.Add(bytes)
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ time.Duration, err error) {
	b.Loads.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordSweep implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSweep(report SweepReport, err error) {
	b.Sweeps.Add(1)
	b.SweepExpired.Add(int64(report.Expired))
	if err != nil {
		b.SweepErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(_ time.Duration, bytes int64, err error) {
	b.Snapshots.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		EntityInserts:  b.EntityInserts.Load(),
		FactorInserts:  b.FactorInserts.Load(),
		InsertErrors:   b.InsertErrors.Load(),
		Unloads:        b.Unloads.Load(),
		UnloadErrors:   b.UnloadErrors.Load(),
		UnloadBytes:    b.UnloadBytes.Load(),
		UnloadAvgNanos: b.avgUnloadNanos(),
		Loads:          b.Loads.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		Sweeps:         b.Sweeps.Load(),
		SweepErrors:    b.SweepErrors.Load(),
		SweepExpired:   b.SweepExpired.Load(),
		Snapshots:      b.Snapshots.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
		SnapshotBytes:  b.SnapshotBytes.Load(),
	}
}

func (b *BasicMetricsCollector) avgUnloadNanos() int64 {
	count := b.Unloads.Load()
	if count == 0 {
		return 0
	}
	return b.UnloadTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	EntityInserts  int64
	FactorInserts  int64
	InsertErrors   int64
	Unloads        int64
	UnloadErrors   int64
	UnloadBytes    int64
	UnloadAvgNanos int64
	Loads          int64
	LoadErrors     int64
	Sweeps         int64
	SweepErrors    int64
	SweepExpired   int64
	Snapshots      int64
	SnapshotErrors int64
	SnapshotBytes  int64
}
