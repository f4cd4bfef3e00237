package orm

import (
	"fmt"
	"strings"
)

// QueryBuilder produces the five canonical statements for one entity.
// Implementations hold no per-call state and are safe for concurrent use.
type QueryBuilder interface {
	BuildSelectAll() string
	BuildSelectByID() string
	BuildInsert(fields []string) (string, error)
	BuildUpdate(fields []string) (string, error)
	BuildDelete() string
}

// Builder is the QueryBuilder for one entity, one NameAdapter and one
// Dialect. Table, identity column and field columns are resolved at
// construction and never re-derived.
type Builder struct {
	adapter  NameAdapter
	dialect  Dialect
	table    string
	idColumn string
	columns  map[string]string
}

// NewPostgreSQLBuilder returns a Builder that retrieves generated keys with
// RETURNING.
func NewPostgreSQLBuilder(a NameAdapter, e *Entity) (*Builder, error) {
	return NewBuilder(a, e, PostgreSQL)
}

// NewSQLServerBuilder returns a Builder that retrieves generated keys with
// OUTPUT INSERTED.
func NewSQLServerBuilder(a NameAdapter, e *Entity) (*Builder, error) {
	return NewBuilder(a, e, SQLServer)
}

// NewBuilder resolves the names of e through a and returns a Builder that
// emits d's generated-key syntax.
func NewBuilder(a NameAdapter, e *Entity, d Dialect) (*Builder, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: name adapter is nil", ErrInvalidArgument)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: dialect is nil", ErrInvalidArgument)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	idColumn, err := a.FieldColumn(&e.ID)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]string, len(e.Fields)+1)
	columns[e.ID.Name] = idColumn
	for i := range e.Fields {
		col, err := a.FieldColumn(&e.Fields[i])
		if err != nil {
			return nil, err
		}
		columns[e.Fields[i].Name] = col
	}

	return &Builder{
		adapter:  a,
		dialect:  d,
		table:    a.TableName(e),
		idColumn: idColumn,
		columns:  columns,
	}, nil
}

// Table returns the resolved table name.
func (b *Builder) Table() string { return b.table }

// Columns returns the resolved column of the identity and of every field,
// keyed by field name.
func (b *Builder) Columns() map[string]string {
	out := make(map[string]string, len(b.columns))
	for k, v := range b.columns {
		out[k] = v
	}
	return out
}

// IDColumn returns the resolved identity column.
func (b *Builder) IDColumn() string { return b.idColumn }

// Dialect returns the Dialect the builder was constructed with.
func (b *Builder) Dialect() Dialect { return b.dialect }

func (b *Builder) BuildSelectAll() string {
	return "SELECT * FROM " + b.table
}

func (b *Builder) BuildSelectByID() string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s = @%s", b.table, b.idColumn, IDParam)
}

// BuildInsert returns an INSERT for fields in the given order, including
// the dialect's generated-key clause.
func (b *Builder) BuildInsert(fields []string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: insert fields cannot be empty", ErrInvalidArgument)
	}

	columns := make([]string, len(fields))
	params := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = b.column(f)
		params[i] = "@" + f
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s)%s VALUES (%s)%s",
		b.table,
		strings.Join(columns, ", "),
		b.dialect.OutputClause(b.idColumn),
		strings.Join(params, ", "),
		b.dialect.ReturningClause(b.idColumn),
	), nil
}

// BuildUpdate returns an UPDATE setting fields in the given order for the
// row identified by @Id.
func (b *Builder) BuildUpdate(fields []string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: update fields cannot be empty", ErrInvalidArgument)
	}

	sets := make([]string, len(fields))
	for i, f := range fields {
		sets[i] = b.column(f) + " = @" + f
	}

	return fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = @%s",
		b.table,
		strings.Join(sets, ", "),
		b.idColumn,
		IDParam,
	), nil
}

func (b *Builder) BuildDelete() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = @%s", b.table, b.idColumn, IDParam)
}

// column returns the cached column for a known field and falls back to the
// adapter's bare-name mapping otherwise.
func (b *Builder) column(field string) string {
	if col, ok := b.columns[field]; ok {
		return col
	}
	return b.adapter.ColumnName(field)
}

var _ QueryBuilder = (*Builder)(nil)
