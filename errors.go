package worldmodel

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/worldmodel/entity"
	"github.com/hupe1980/worldmodel/model"
)

var (
	// ErrNotFound is returned when an entity or factor id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrInconsistent is returned when a mutation would leave a factor
	// referencing an entity that does not exist.
	ErrInconsistent = errors.New("inconsistent graph")

	// ErrStorage wraps failures to move payloads to or from external storage.
	ErrStorage = entity.ErrStorage

	// ErrClosed is returned by operations on a closed world model.
	ErrClosed = errors.New("world model closed")

	// ErrCorruptSnapshot is returned when a snapshot cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// NotFoundError reports a lookup of an unknown id.
type NotFoundError struct {
	Kind string // "entity" or "factor"
	ID   uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func entityNotFound(id model.EntityID) error {
	return &NotFoundError{Kind: "entity", ID: uint64(id)}
}

func factorNotFound(id model.FactorID) error {
	return &NotFoundError{Kind: "factor", ID: uint64(id)}
}

// InconsistentError reports a rejected graph mutation.
type InconsistentError struct {
	Op string
	// Missing lists entities a new factor referenced but that do not exist.
	Missing []model.EntityID
	// Referencing lists factors that still reference an entity being removed.
	Referencing []model.FactorID
}

func (e *InconsistentError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing entities %v", e.Missing)
	}
	if len(e.Referencing) > 0 {
		fmt.Fprintf(&b, ": still referenced by factors %v", e.Referencing)
	}
	return b.String()
}

func (e *InconsistentError) Unwrap() error { return ErrInconsistent }

// SweepError collects the per-entity failures of one eviction sweep. The
// affected entities stay resident and are retried on the next sweep.
type SweepError struct {
	Failures map[model.EntityID]error
}

func (e *SweepError) Error() string {
	ids := e.IDs()
	if len(ids) == 1 {
		return fmt.Sprintf("sweep: unload %s: %v", ids[0], e.Failures[ids[0]])
	}
	return fmt.Sprintf("sweep: %d entities failed to unload (first %s: %v)", len(ids), ids[0], e.Failures[ids[0]])
}

// IDs returns the failed entity ids in ascending order.
func (e *SweepError) IDs() []model.EntityID {
	ids := make([]model.EntityID, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (e *SweepError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, id := range e.IDs() {
		errs = append(errs, e.Failures[id])
	}
	return errs
}
