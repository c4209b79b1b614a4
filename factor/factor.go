// Package factor defines the edges of the world model graph.
//
// A Factor constrains one or more entities. Its Kind fixes the arity:
// priors touch exactly one entity, relative poses exactly two and generic
// constraints at least one.
package factor

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/worldmodel/internal/wire"
	"github.com/hupe1980/worldmodel/model"
)

// maxEntities bounds decoded entity lists.
const maxEntities = 1 << 16

// ErrArity is returned when the number of entities does not fit the kind.
var ErrArity = errors.New("factor: wrong number of entities")

// Kind discriminates the factor variants.
type Kind uint8

const (
	KindPrior Kind = iota + 1
	KindRelativePose
	KindConstraint
)

func (k Kind) String() string {
	switch k {
	case KindPrior:
		return "prior"
	case KindRelativePose:
		return "relative_pose"
	case KindConstraint:
		return "constraint"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) checkArity(n int) error {
	switch k {
	case KindPrior:
		if n != 1 {
			return fmt.Errorf("%w: %s takes 1, got %d", ErrArity, k, n)
		}
	case KindRelativePose:
		if n != 2 {
			return fmt.Errorf("%w: %s takes 2, got %d", ErrArity, k, n)
		}
	case KindConstraint:
		if n < 1 {
			return fmt.Errorf("%w: %s takes at least 1", ErrArity, k)
		}
	default:
		return fmt.Errorf("factor: unknown kind %d", uint8(k))
	}
	return nil
}

// Factor links a set of entities.
type Factor struct {
	id       model.FactorID
	kind     Kind
	entities []model.EntityID
}

// New returns a factor of kind over ids. Duplicate ids are collapsed before
// the arity check.
func New(kind Kind, ids ...model.EntityID) (*Factor, error) {
	entities := dedup(ids)
	if err := kind.checkArity(len(entities)); err != nil {
		return nil, err
	}
	return &Factor{kind: kind, entities: entities}, nil
}

// Prior returns a prior on id.
func Prior(id model.EntityID) *Factor {
	return &Factor{kind: KindPrior, entities: []model.EntityID{id}}
}

// RelativePose returns a relative pose factor between from and to.
func RelativePose(from, to model.EntityID) (*Factor, error) {
	return New(KindRelativePose, from, to)
}

func dedup(ids []model.EntityID) []model.EntityID {
	out := make([]model.EntityID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// ID returns the identifier, model.InvalidID until inserted.
func (f *Factor) ID() model.FactorID { return f.id }

// AssignID sets the identifier. The world model calls it on insertion.
func (f *Factor) AssignID(id model.FactorID) { f.id = id }

// Kind returns the variant tag.
func (f *Factor) Kind() Kind { return f.kind }

// Entities returns a copy of the connected entity ids.
func (f *Factor) Entities() []model.EntityID {
	return slices.Clone(f.entities)
}

// Touches reports whether f connects id.
func (f *Factor) Touches(id model.EntityID) bool {
	return slices.Contains(f.entities, id)
}

// Clone returns a deep copy.
func (f *Factor) Clone() *Factor {
	return &Factor{id: f.id, kind: f.kind, entities: slices.Clone(f.entities)}
}

// Encode writes [id u64][kind u8][count u32][entity u64 × count].
func (f *Factor) Encode(w io.Writer) error {
	ww := wire.NewWriter(w)
	ww.U64(uint64(f.id))
	ww.U8(uint8(f.kind))
	ww.Len(len(f.entities))
	for _, id := range f.entities {
		ww.U64(uint64(id))
	}
	if err := ww.Err(); err != nil {
		return fmt.Errorf("encode %s: %w", f.id, err)
	}
	return nil
}

// Decode reads a record written by Encode.
func Decode(r io.Reader) (*Factor, error) {
	rr := wire.NewReader(r)
	id := model.FactorID(rr.U64())
	kind := Kind(rr.U8())
	n := rr.Count(maxEntities)
	entities := make([]model.EntityID, 0, n)
	for i := 0; i < n && rr.Err() == nil; i++ {
		entities = append(entities, model.EntityID(rr.U64()))
	}
	if err := rr.Err(); err != nil {
		return nil, fmt.Errorf("decode factor: %w", err)
	}

	f, err := New(kind, entities...)
	if err != nil {
		return nil, fmt.Errorf("decode factor %s: %w: %w", id, wire.ErrCorrupt, err)
	}
	f.id = id
	return f, nil
}
