package worldmodel

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/worldmodel/internal/lockorder"
	"github.com/hupe1980/worldmodel/internal/watch"
	"github.com/hupe1980/worldmodel/model"
	"golang.org/x/sync/errgroup"
)

// SweepReport summarizes one eviction sweep.
type SweepReport struct {
	// Cutoff is now minus the configured age. Entities last touched
	// strictly before it were reported.
	Cutoff time.Time
	// Expired is the number of entities reported by the watch list.
	Expired int
	// Unloaded is the number of entities whose payloads were released.
	Unloaded int
	// Skipped counts entities removed or touched again between expiry
	// and unload.
	Skipped int
	// Failed counts entities that stay resident after a storage failure.
	Failed int
	// BytesWritten is the total size of the frames written to storage.
	BytesWritten int64
	Duration     time.Duration
}

// SpinOnce runs one eviction sweep. Every entity not touched for longer than
// the configured age is unloaded once and then ignored until touched again.
// Entities that fail to unload stay resident, are re-armed with their
// original access time and reported through a *SweepError.
func (w *World) SpinOnce(ctx context.Context) (SweepReport, error) {
	if w.closed.Load() {
		return SweepReport{}, ErrClosed
	}

	start := time.Now()
	report := SweepReport{Cutoff: w.now().Add(-w.opts.ageToUnload)}

	expired := w.watch.Expired(report.Cutoff)
	report.Expired = len(expired)
	if len(expired) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	failures := w.unloadExpired(ctx, expired, &report)

	var err error
	if len(failures) > 0 {
		for _, e := range expired {
			if _, failed := failures[e.ID]; failed {
				w.watch.Rearm(e.ID, e.LastAccess)
			}
		}
		err = &SweepError{Failures: failures}
	}

	report.Duration = time.Since(start)
	w.metrics.RecordSweep(report, err)
	w.logger.LogSweep(ctx, report, err)
	return report, err
}

func (w *World) unloadExpired(ctx context.Context, expired []watch.Entry, report *SweepReport) map[model.EntityID]error {
	unlock := w.guard.Lock(lockorder.EntitiesWrite)
	defer unlock()

	var (
		mu       sync.Mutex
		failures = make(map[model.EntityID]error)
	)

	g := new(errgroup.Group)
	g.SetLimit(w.opts.rc.Workers())

	for _, entry := range expired {
		e, ok := w.entities[entry.ID]
		if !ok {
			report.Skipped++
			continue
		}
		if cur, ok := w.watch.Get(entry.ID); !ok || cur.State != watch.Reported {
			report.Skipped++
			continue
		}

		g.Go(func() error {
			if err := w.opts.rc.AcquireWorker(ctx); err != nil {
				mu.Lock()
				failures[entry.ID] = err
				mu.Unlock()
				return nil
			}
			defer w.opts.rc.ReleaseWorker()

			unloadStart := time.Now()
			n, err := e.Unload(ctx, w.storage)
			w.metrics.RecordUnload(time.Since(unloadStart), n, err)
			w.logger.LogUnload(ctx, entry.ID, n, err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[entry.ID] = err
				return nil
			}
			report.Unloaded++
			report.BytesWritten += n
			return nil
		})
	}
	_ = g.Wait()

	report.Failed = len(failures)
	return failures
}

// Run calls SpinOnce every sweep interval until ctx is done or the world
// is closed. Sweep failures are logged and retried on the next tick.
func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			if _, err := w.SpinOnce(ctx); err != nil && ctx.Err() == nil && !w.closed.Load() {
				w.logger.DebugContext(ctx, "sweep retry scheduled", "error", err)
			}
		}
	}
}
