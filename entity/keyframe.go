package entity

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/hupe1980/worldmodel/internal/wire"
)

// maxObservations bounds decoded observation manifests.
const maxObservations = 1 << 20

// Observation is one raw sensor message.
type Observation struct {
	Sensor    string
	Timestamp time.Time
	Payload   []byte
}

func (o Observation) clone() Observation {
	o.Payload = slices.Clone(o.Payload)
	return o
}

// ObservationRef locates a released observation in external storage.
type ObservationRef struct {
	Sensor    string
	Timestamp time.Time
	Path      string
}

// KeyFrameData is the keyframe-only part of an entity.
type KeyFrameData struct {
	observations []Observation
	manifest     []ObservationRef
	released     bool
}

// Add appends an observation. It fails with ErrReleased while the collection
// is released; load the entity first.
func (k *KeyFrameData) Add(o Observation) error {
	if k.released {
		return ErrReleased
	}
	k.observations = append(k.observations, o)
	return nil
}

// Observations returns the resident observations and false when the
// collection is released.
func (k *KeyFrameData) Observations() ([]Observation, bool) {
	if k.released {
		return nil, false
	}
	return k.observations, true
}

// Len returns the number of observations, resident or released.
func (k *KeyFrameData) Len() int {
	if k.released {
		return len(k.manifest)
	}
	return len(k.observations)
}

// Released reports whether the observation collection has been dropped.
func (k *KeyFrameData) Released() bool { return k.released }

// Manifest returns the paths of released observations.
func (k *KeyFrameData) Manifest() []ObservationRef {
	return slices.Clone(k.manifest)
}

// unloaded reports whether nothing observation-related remains in memory.
func (k *KeyFrameData) unloaded() bool {
	return k.released || len(k.observations) == 0
}

func (k *KeyFrameData) residentBytes() int64 {
	var n int64
	for _, o := range k.observations {
		n += int64(len(o.Payload))
	}
	return n
}

func (k *KeyFrameData) clone() *KeyFrameData {
	c := &KeyFrameData{
		manifest: slices.Clone(k.manifest),
		released: k.released,
	}
	if k.observations != nil {
		c.observations = make([]Observation, len(k.observations))
		for i, o := range k.observations {
			c.observations[i] = o.clone()
		}
	}
	return c
}

// EncodeManifest writes the observation manifest:
//
//	[released u8][count u32] ([sensor str][sec i64][nsec u32][path str]) × count
func (k *KeyFrameData) EncodeManifest(w io.Writer) error {
	ww := wire.NewWriter(w)
	if k.released {
		ww.U8(1)
	} else {
		ww.U8(0)
	}
	ww.Len(len(k.manifest))
	for _, ref := range k.manifest {
		ww.String(ref.Sensor)
		ww.Time(ref.Timestamp)
		ww.String(ref.Path)
	}
	return ww.Err()
}

// DecodeManifest reads a manifest written by EncodeManifest into k. The
// observation collection is left released when the manifest says so.
func (k *KeyFrameData) DecodeManifest(r io.Reader) error {
	rr := wire.NewReader(r)
	released := rr.U8() == 1
	n := rr.Count(maxObservations)
	manifest := make([]ObservationRef, 0, n)
	for i := 0; i < n && rr.Err() == nil; i++ {
		manifest = append(manifest, ObservationRef{
			Sensor:    rr.String(),
			Timestamp: rr.Time(),
			Path:      rr.String(),
		})
	}
	if err := rr.Err(); err != nil {
		return fmt.Errorf("decode observation manifest: %w", err)
	}
	k.observations = nil
	k.manifest = manifest
	k.released = released
	return nil
}
