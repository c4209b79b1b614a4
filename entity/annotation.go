package entity

import (
	"context"
	"slices"
)

// Annotation is a named payload attached to an entity.
//
// The zero value is Resident with an empty payload. An annotation is Unloaded
// iff its payload has been released and a path is set; a Resident annotation
// may keep its path so that a later unload reuses it.
type Annotation struct {
	payload  []byte
	path     string
	unloaded bool
}

// NewAnnotation returns a Resident annotation holding payload.
func NewAnnotation(payload []byte) *Annotation {
	return &Annotation{payload: payload}
}

// External returns an Unloaded annotation backed by path.
func External(path string) *Annotation {
	return &Annotation{path: path, unloaded: true}
}

// Payload returns the in-memory payload and whether the annotation is resident.
func (a *Annotation) Payload() ([]byte, bool) {
	if a.unloaded {
		return nil, false
	}
	return a.payload, true
}

// SetPayload replaces the payload and makes the annotation Resident. The
// external path is kept.
func (a *Annotation) SetPayload(payload []byte) {
	a.payload = payload
	a.unloaded = false
}

// Path returns the external storage path, empty if none was assigned yet.
func (a *Annotation) Path() string { return a.path }

// IsUnloaded reports whether the payload lives only in external storage.
func (a *Annotation) IsUnloaded() bool { return a.unloaded }

// Unload persists the payload under the annotation's path, or under
// defaultPath when it has none, and releases it. No-op when already unloaded.
func (a *Annotation) Unload(ctx context.Context, s *Storage, defaultPath string) error {
	if a.unloaded {
		return nil
	}
	if _, err := a.persist(ctx, s, defaultPath); err != nil {
		return err
	}
	a.release()
	return nil
}

// Load restores the payload from external storage. No-op when resident.
func (a *Annotation) Load(ctx context.Context, s *Storage) error {
	if !a.unloaded {
		return nil
	}
	payload, err := s.get(ctx, a.path)
	if err != nil {
		return err
	}
	a.payload = payload
	a.unloaded = false
	return nil
}

func (a *Annotation) persist(ctx context.Context, s *Storage, defaultPath string) (int, error) {
	if a.path == "" {
		a.path = defaultPath
	}
	return s.put(ctx, a.path, a.payload)
}

func (a *Annotation) release() {
	a.payload = nil
	a.unloaded = true
}

func (a *Annotation) clone() *Annotation {
	c := *a
	if a.payload != nil {
		c.payload = slices.Clone(a.payload)
	}
	return &c
}

// Annotations is an entity's annotation store keyed by unique name.
type Annotations map[string]*Annotation

// Set stores payload under name as Resident, keeping an existing path.
func (as Annotations) Set(name string, payload []byte) {
	if a, ok := as[name]; ok {
		a.SetPayload(payload)
		return
	}
	as[name] = NewAnnotation(payload)
}

// Get returns the annotation stored under name.
func (as Annotations) Get(name string) (*Annotation, bool) {
	a, ok := as[name]
	return a, ok
}

// Remove deletes name. The external blob, if any, is left in place.
func (as Annotations) Remove(name string) {
	delete(as, name)
}

// Names returns the annotation names in ascending order.
func (as Annotations) Names() []string {
	names := make([]string, 0, len(as))
	for name := range as {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// AllUnloaded reports whether every annotation is Unloaded. It is true for an
// empty store.
func (as Annotations) AllUnloaded() bool {
	for _, a := range as {
		if !a.unloaded {
			return false
		}
	}
	return true
}

// Clone deep-copies the store.
func (as Annotations) Clone() Annotations {
	out := make(Annotations, len(as))
	for name, a := range as {
		out[name] = a.clone()
	}
	return out
}
