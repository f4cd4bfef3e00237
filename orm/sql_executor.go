package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLExecutor runs statements over connections from a SQLFactory. Named
// placeholders are bound positionally and rebound to the driver's
// bindvar style.
type SQLExecutor[T any] struct {
	mapper *columnMapper
}

// NewSQLExecutor returns an SQLExecutor for T.
func NewSQLExecutor[T any]() SQLExecutor[T] { return SQLExecutor[T]{} }

// WithColumns returns a copy that scans rows through columns (struct
// field name -> column). Fields missing from columns use the factory's
// NameAdapter; a `db` tag still wins.
func (SQLExecutor[T]) WithColumns(columns map[string]string) Executor[T] {
	return SQLExecutor[T]{mapper: newColumnMapper(columns)}
}

func (e SQLExecutor[T]) Select(ctx context.Context, conn Conn, query string, args Args) ([]T, error) {
	c, q, values, err := e.prepare(conn, query, args)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := c.SelectContext(ctx, &out, q, values...); err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	return out, nil
}

func (e SQLExecutor[T]) Get(ctx context.Context, conn Conn, query string, args Args) (T, bool, error) {
	var out T
	c, q, values, err := e.prepare(conn, query, args)
	if err != nil {
		return out, false, err
	}
	if err := c.GetContext(ctx, &out, q, values...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return out, false, nil
		}
		return out, false, err //nolint:wrapcheck // pass through
	}
	return out, true, nil
}

func (e SQLExecutor[T]) Exec(ctx context.Context, conn Conn, query string, args Args) (int64, error) {
	c, q, values, err := e.prepare(conn, query, args)
	if err != nil {
		return 0, err
	}
	res, err := c.ExecContext(ctx, q, values...)
	if err != nil {
		return 0, err //nolint:wrapcheck // pass through
	}
	return res.RowsAffected() //nolint:wrapcheck // pass through
}

func (e SQLExecutor[T]) Scalar(ctx context.Context, conn Conn, dest any, query string, args Args) error {
	c, q, values, err := e.prepare(conn, query, args)
	if err != nil {
		return err
	}
	if err := c.QueryRowxContext(ctx, q, values...).Scan(dest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoRows
		}
		return err //nolint:wrapcheck // pass through
	}
	return nil
}

func (e SQLExecutor[T]) prepare(conn Conn, query string, args Args) (*sqlConn, string, []any, error) {
	c, ok := conn.(*sqlConn)
	if !ok {
		return nil, "", nil, fmt.Errorf("%w: got %T", ErrConnMismatch, conn)
	}
	q, values, err := Bind(query, args)
	if err != nil {
		return nil, "", nil, err
	}
	if e.mapper != nil {
		c.Mapper = e.mapper.sqlxMapper(c.factory)
	}
	return c, sqlx.Rebind(c.bindType, q), values, nil
}

var (
	_ Executor[struct{}]    = SQLExecutor[struct{}]{}
	_ ColumnAware[struct{}] = SQLExecutor[struct{}]{}
)
