package entity

import (
	"time"

	"github.com/hupe1980/worldmodel/model"
)

// Entity is a node of the world model graph.
type Entity struct {
	id          model.EntityID
	kind        Kind
	timestamp   time.Time
	annotations Annotations
	keyframe    *KeyFrameData
}

// New returns an entity of the given kind without an id.
func New(kind Kind, timestamp time.Time) *Entity {
	e := &Entity{
		kind:        kind,
		timestamp:   timestamp,
		annotations: make(Annotations),
	}
	if kind == KindKeyFrame {
		e.keyframe = &KeyFrameData{}
	}
	return e
}

// NewPose returns a pose entity.
func NewPose(timestamp time.Time) *Entity {
	return New(KindPose, timestamp)
}

// NewCalibration returns a calibration entity.
func NewCalibration(timestamp time.Time) *Entity {
	return New(KindCalibration, timestamp)
}

// NewKeyFrame returns a keyframe entity holding observations.
func NewKeyFrame(timestamp time.Time, observations ...Observation) *Entity {
	e := New(KindKeyFrame, timestamp)
	e.keyframe.observations = observations
	return e
}

// ID returns the identifier, model.InvalidID until inserted.
func (e *Entity) ID() model.EntityID { return e.id }

// AssignID sets the identifier. The world model calls it exactly once on
// insertion.
func (e *Entity) AssignID(id model.EntityID) { e.id = id }

// Kind returns the variant tag.
func (e *Entity) Kind() Kind { return e.kind }

// Timestamp returns the time the entity refers to.
func (e *Entity) Timestamp() time.Time { return e.timestamp }

// Annotations returns the live annotation store.
func (e *Entity) Annotations() Annotations {
	if e.annotations == nil {
		e.annotations = make(Annotations)
	}
	return e.annotations
}

// KeyFrame returns the keyframe data, nil for other kinds.
func (e *Entity) KeyFrame() *KeyFrameData { return e.keyframe }

// ResidentBytes returns the payload bytes currently held in memory.
func (e *Entity) ResidentBytes() int64 {
	var n int64
	for _, a := range e.annotations {
		if p, ok := a.Payload(); ok {
			n += int64(len(p))
		}
	}
	if e.keyframe != nil {
		n += e.keyframe.residentBytes()
	}
	return n
}

// Clone returns a deep copy, including payloads and observations.
func (e *Entity) Clone() *Entity {
	c := &Entity{
		id:          e.id,
		kind:        e.kind,
		timestamp:   e.timestamp,
		annotations: e.annotations.Clone(),
	}
	if e.keyframe != nil {
		c.keyframe = e.keyframe.clone()
	}
	return c
}
