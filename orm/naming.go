package orm

import (
	"fmt"

	"github.com/jinzhu/inflection"

	"github.com/untout/persistence/internal/naming"
)

// NameAdapter maps logical entity and field names to physical table and
// column names. Implementations must be deterministic and free of side
// effects so that a Builder can resolve names once and cache them.
type NameAdapter interface {
	// TableName returns the table for e. It always returns some name.
	TableName(e *Entity) string

	// ColumnName maps a bare logical field name to a column name.
	ColumnName(name string) string

	// FieldColumn maps a field descriptor to a column name, honoring an
	// explicit Column override. A nil descriptor yields ErrInvalidArgument.
	FieldColumn(f *Field) (string, error)
}

// AttributeAdapter uses explicit overrides and otherwise keeps logical
// names verbatim.
type AttributeAdapter struct{}

// NewAttributeAdapter returns an AttributeAdapter.
func NewAttributeAdapter() AttributeAdapter { return AttributeAdapter{} }

func (AttributeAdapter) TableName(e *Entity) string {
	if e.Table != "" {
		return e.Table
	}
	return e.Name
}

func (AttributeAdapter) ColumnName(name string) string { return name }

func (AttributeAdapter) FieldColumn(f *Field) (string, error) {
	if f == nil {
		return "", fmt.Errorf("%w: field descriptor is nil", ErrInvalidArgument)
	}
	if f.Column != "" {
		return f.Column, nil
	}
	return f.Name, nil
}

// SnakeCaseAdapter uses explicit overrides and otherwise converts
// PascalCase logical names to snake_case.
type SnakeCaseAdapter struct {
	convert func(string) string
	plural  bool
}

// SnakeCaseOption configures a SnakeCaseAdapter.
type SnakeCaseOption func(a *SnakeCaseAdapter)

// WithAcronymGrouping keeps runs of uppercase letters together, so
// "HTTPSConnection" becomes "https_connection" instead of the default
// "h_t_t_p_s_connection".
func WithAcronymGrouping() SnakeCaseOption {
	return func(a *SnakeCaseAdapter) {
		a.convert = naming.CamelToSnake
	}
}

// WithPluralTables pluralizes table names derived from the entity name
// ("NewsArticle" → "news_articles"). Explicit table overrides are kept as is.
func WithPluralTables() SnakeCaseOption {
	return func(a *SnakeCaseAdapter) {
		a.plural = true
	}
}

// NewSnakeCaseAdapter returns a SnakeCaseAdapter. Without options the
// conversion is naming.ToSnakeCase.
func NewSnakeCaseAdapter(opts ...SnakeCaseOption) *SnakeCaseAdapter {
	a := &SnakeCaseAdapter{convert: naming.ToSnakeCase}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *SnakeCaseAdapter) TableName(e *Entity) string {
	if e.Table != "" {
		return e.Table
	}
	name := a.convert(e.Name)
	if a.plural {
		return inflection.Plural(name)
	}
	return name
}

func (a *SnakeCaseAdapter) ColumnName(name string) string {
	return a.convert(name)
}

func (a *SnakeCaseAdapter) FieldColumn(f *Field) (string, error) {
	if f == nil {
		return "", fmt.Errorf("%w: field descriptor is nil", ErrInvalidArgument)
	}
	if f.Column != "" {
		return f.Column, nil
	}
	return a.convert(f.Name), nil
}

var (
	_ NameAdapter = AttributeAdapter{}
	_ NameAdapter = (*SnakeCaseAdapter)(nil)
)
