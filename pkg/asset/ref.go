package asset

import (
	"bytes"

	"github.com/google/uuid"
)

// Kind identifies which registry collection an asset belongs to.
type Kind uint8

const (
	KindPart Kind = iota
	KindComposite
	KindFolder
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindPart:
		return "part"
	case KindComposite:
		return "composite"
	case KindFolder:
		return "folder"
	}
	return "unknown"
}

// Ref is a typed unique identifier for an asset. It is the sole
// cross-reference mechanism between assets: folders point at parent folders,
// composite children point at parts, and the registry keys its collections
// by Ref. The zero value is the null ref.
type Ref struct {
	ID   uuid.UUID
	Kind Kind
}

// NewRef returns a freshly generated non-null ref of the given kind.
func NewRef(kind Kind) Ref {
	return Ref{ID: uuid.New(), Kind: kind}
}

// IsNull reports whether the ref carries no identity.
func (r Ref) IsNull() bool {
	return r.ID == uuid.Nil
}

// Equal reports ref equality. Two null refs are equal regardless of kind;
// non-null refs are equal only when both id and kind match.
func (r Ref) Equal(o Ref) bool {
	if r.IsNull() && o.IsNull() {
		return true
	}
	return r.ID == o.ID && r.Kind == o.Kind
}

// Less orders refs by id, reversed. The ordering exists solely so refs can
// key sorted containers; it carries no semantic meaning.
func (r Ref) Less(o Ref) bool {
	return bytes.Compare(r.ID[:], o.ID[:]) > 0
}

// HashKey returns the value a hash derives from: the id alone.
func (r Ref) HashKey() uuid.UUID {
	return r.ID
}

// String renders the ref as "kind/uuid" for error messages and logs.
func (r Ref) String() string {
	if r.IsNull() {
		return r.Kind.String() + "/null"
	}
	return r.Kind.String() + "/" + r.ID.String()
}
