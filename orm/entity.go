package orm

import (
	"fmt"
	"strings"
)

// Args is the named parameter bag passed to an Executor. Keys are logical
// field names and must match the @Name placeholders emitted by a Builder
// exactly (case-sensitive).
type Args map[string]any

// IDParam is the placeholder name every statement uses for the identity.
const IDParam = "Id"

// Field describes one logical field of an entity.
type Field struct {
	// Name is the logical (Go-side) name; it is also the parameter name.
	Name string
	// Column is an explicit column name override. Empty means the
	// NameAdapter derives the column from Name.
	Column string
}

// Entity is an explicit description of one record type: its logical name,
// an optional table override, the identity field and the ordered list of
// non-identity fields.
type Entity struct {
	Name   string
	Table  string
	ID     Field
	Fields []Field
}

// Validate reports whether e can be used to build statements.
func (e *Entity) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidArgument)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: entity name is empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(e.ID.Name) == "" {
		return fmt.Errorf("%w: entity %s has no identity field", ErrInvalidArgument, e.Name)
	}

	seen := make(map[string]struct{}, len(e.Fields))
	for _, f := range e.Fields {
		switch {
		case strings.TrimSpace(f.Name) == "":
			return fmt.Errorf("%w: entity %s has a field without a name", ErrInvalidArgument, e.Name)
		case f.Name == e.ID.Name:
			return fmt.Errorf("%w: identity field %s listed among fields of %s", ErrInvalidArgument, f.Name, e.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %s in %s", ErrInvalidArgument, f.Name, e.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// FieldNames returns the logical names of the non-identity fields in
// declaration order.
func (e *Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

// Mapping binds an Entity to a Go type T with key type K. The accessors
// replace reflection: Args returns the non-identity field values keyed by
// logical name, ID reads the identity and SetID writes the generated one.
// Mappings are normally produced by persistgen.
type Mapping[K comparable, T any] struct {
	Entity Entity
	Args   func(t *T) Args
	ID     func(t *T) K
	SetID  func(t *T, id K)
}

// NewMapping validates m and folds a TableNamer implemented by T into
// the entity's table override.
func NewMapping[K comparable, T any](m Mapping[K, T]) (Mapping[K, T], error) {
	if err := m.Entity.Validate(); err != nil {
		return Mapping[K, T]{}, err
	}
	if m.Args == nil || m.ID == nil || m.SetID == nil {
		return Mapping[K, T]{}, fmt.Errorf("%w: mapping for %s is missing accessors", ErrInvalidArgument, m.Entity.Name)
	}
	m.Entity.Table = ResolveTableName[T](m.Entity.Table)
	m.Entity.Fields = append([]Field(nil), m.Entity.Fields...)
	return m, nil
}
