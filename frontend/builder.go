package frontend

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/hupe1980/worldmodel/entity"
	"github.com/hupe1980/worldmodel/factor"
	"github.com/hupe1980/worldmodel/model"
)

// ObservationSink receives raw sensor observations.
type ObservationSink interface {
	OnObservation(ctx context.Context, obs entity.Observation) error
}

// SinkFunc adapts a function to ObservationSink.
type SinkFunc func(ctx context.Context, obs entity.Observation) error

// OnObservation implements ObservationSink.
func (f SinkFunc) OnObservation(ctx context.Context, obs entity.Observation) error {
	return f(ctx, obs)
}

// Graph is the part of a world model the builder writes to.
// *worldmodel.World implements it.
type Graph interface {
	EmplaceEntity(e *entity.Entity) model.EntityID
	EmplaceFactor(f *factor.Factor) (model.FactorID, error)
}

type options struct {
	sensors []string
}

// Option configures a KeyFrameBuilder.
type Option func(*options)

// WithSensors restricts the builder to observations from the given sensors.
// Others are dropped silently.
func WithSensors(sensors ...string) Option {
	return func(o *options) {
		o.sensors = sensors
	}
}

// KeyFrameBuilder creates a keyframe entity per observation. Every keyframe
// after the first is linked to its predecessor by a relative pose factor.
// It is safe for concurrent use; keyframes are chained in arrival order.
type KeyFrameBuilder struct {
	graph Graph
	opts  options

	mu        sync.Mutex
	last      model.EntityID
	keyframes int
	factors   int
}

// NewKeyFrameBuilder returns a builder writing to g.
func NewKeyFrameBuilder(g Graph, optFns ...Option) *KeyFrameBuilder {
	var opts options
	for _, fn := range optFns {
		fn(&opts)
	}
	return &KeyFrameBuilder{graph: g, opts: opts}
}

// OnObservation implements ObservationSink. The payload is owned by the new
// keyframe afterwards.
func (b *KeyFrameBuilder) OnObservation(ctx context.Context, obs entity.Observation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(b.opts.sensors) > 0 && !slices.Contains(b.opts.sensors, obs.Sensor) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.graph.EmplaceEntity(entity.NewKeyFrame(obs.Timestamp, obs))
	b.keyframes++

	prev := b.last
	b.last = id
	if prev == model.InvalidID {
		return nil
	}

	f, err := factor.RelativePose(prev, id)
	if err != nil {
		return err
	}
	if _, err := b.graph.EmplaceFactor(f); err != nil {
		return fmt.Errorf("frontend: link %s to %s: %w", prev, id, err)
	}
	b.factors++
	return nil
}

// Last returns the id of the most recent keyframe, model.InvalidID if none.
func (b *KeyFrameBuilder) Last() model.EntityID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Counts returns the number of keyframes and factors inserted so far.
func (b *KeyFrameBuilder) Counts() (keyframes, factors int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.keyframes, b.factors
}

// Replay feeds every observation of src into sink and stops at the first
// error. It returns the number of observations delivered.
func Replay(ctx context.Context, sink ObservationSink, src iter.Seq[entity.Observation]) (int, error) {
	n := 0
	for obs := range src {
		if err := sink.OnObservation(ctx, obs); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
