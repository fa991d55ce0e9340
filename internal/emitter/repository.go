package emitter

import (
	"fmt"

	"github.com/papapumpkin/hydrosource/internal/config"
)

// Kind tags which arena slice a Handle indexes.
type Kind uint8

const (
	// KindString refers to a QCDString.
	KindString Kind = iota
	// KindParton refers to a Parton.
	KindParton
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindParton:
		return "parton"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Handle references one emitter in a Repository.
type Handle struct {
	Kind  Kind
	Index int32
}

// String formats the handle as kind#index.
func (h Handle) String() string {
	return fmt.Sprintf("%s#%d", h.Kind, h.Index)
}

// Repository owns every emitter of an event. Strings and partons live in
// separate slices and are referenced by Handle; handles stay valid because
// emitters are only ever appended.
type Repository struct {
	Model config.Model

	strings    []QCDString
	partons    []Parton
	normalized bool
}

// NewRepository returns an empty repository for the given population path.
func NewRepository(model config.Model) *Repository {
	return &Repository{Model: model}
}

// AddString appends a string and returns its handle.
func (r *Repository) AddString(s QCDString) Handle {
	r.strings = append(r.strings, s)
	return Handle{Kind: KindString, Index: int32(len(r.strings) - 1)}
}

// AddParton appends a parton and returns its handle.
func (r *Repository) AddParton(p Parton) Handle {
	r.partons = append(r.partons, p)
	return Handle{Kind: KindParton, Index: int32(len(r.partons) - 1)}
}

// StringAt returns the string behind h. The pointer aliases the arena.
func (r *Repository) StringAt(h Handle) *QCDString {
	return &r.strings[h.Index]
}

// PartonAt returns the parton behind h. The pointer aliases the arena.
func (r *Repository) PartonAt(h Handle) *Parton {
	return &r.partons[h.Index]
}

// Strings exposes the string arena. Callers must not append to it.
func (r *Repository) Strings() []QCDString { return r.strings }

// Partons exposes the parton arena. Callers must not append to it.
func (r *Repository) Partons() []Parton { return r.partons }

// Len returns the total number of emitters.
func (r *Repository) Len() int { return len(r.strings) + len(r.partons) }

// Empty reports whether the repository holds no emitters at all.
func (r *Repository) Empty() bool { return r.Len() == 0 }

// Normalized reports whether the one-time normalization has run.
func (r *Repository) Normalized() bool { return r.normalized }

// MarkNormalized records that normalization has written every string's norms.
func (r *Repository) MarkNormalized() { r.normalized = true }
