package orm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxFactory hands out connections from a pgx pool.
type PgxFactory struct {
	pool *pgxpool.Pool
}

// OpenPgx creates a pgx pool for dsn. maxConns <= 0 keeps the pool default.
func OpenPgx(ctx context.Context, dsn string, maxConns int32) (*PgxFactory, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: connection string is empty", ErrInvalidArgument)
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("orm: parse pgx config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("orm: create pgx pool: %w", err)
	}
	return NewPgxFactory(pool), nil
}

// NewPgxFactory wraps an existing pool.
func NewPgxFactory(pool *pgxpool.Pool) *PgxFactory {
	return &PgxFactory{pool: pool}
}

// Connect acquires a connection from the pool.
func (f *PgxFactory) Connect(ctx context.Context) (Conn, error) {
	c, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	return &pgxConn{c}, nil
}

// Pool returns the underlying pool.
func (f *PgxFactory) Pool() *pgxpool.Pool { return f.pool }

// Close closes the pool.
func (f *PgxFactory) Close() { f.pool.Close() }

type pgxConn struct {
	*pgxpool.Conn
}

// Close returns the connection to the pool.
func (c *pgxConn) Close() error {
	c.Release()
	return nil
}

// PgxExecutor runs statements over connections from a PgxFactory. pgx
// binds @Name placeholders natively; rows are mapped to T by column name,
// honoring `db` struct tags.
type PgxExecutor[T any] struct {
	mapper *columnMapper
}

// NewPgxExecutor returns a PgxExecutor for T.
func NewPgxExecutor[T any]() PgxExecutor[T] { return PgxExecutor[T]{} }

// WithColumns returns a copy that scans rows through columns (struct
// field name -> column). A `db` tag still wins; other fields match
// columns ignoring case and underscores.
func (PgxExecutor[T]) WithColumns(columns map[string]string) Executor[T] {
	return PgxExecutor[T]{mapper: newColumnMapper(columns)}
}

func (e PgxExecutor[T]) Select(ctx context.Context, conn Conn, query string, args Args) ([]T, error) {
	c, named, err := pgxPrepare(conn, query, args)
	if err != nil {
		return nil, err
	}
	rows, err := c.Query(ctx, query, named)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	return pgx.CollectRows(rows, e.rowTo()) //nolint:wrapcheck // pass through
}

func (e PgxExecutor[T]) Get(ctx context.Context, conn Conn, query string, args Args) (T, bool, error) {
	var zero T
	c, named, err := pgxPrepare(conn, query, args)
	if err != nil {
		return zero, false, err
	}
	rows, err := c.Query(ctx, query, named)
	if err != nil {
		return zero, false, err //nolint:wrapcheck // pass through
	}
	v, err := pgx.CollectOneRow(rows, e.rowTo())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, err //nolint:wrapcheck // pass through
	}
	return v, true, nil
}

func (PgxExecutor[T]) Exec(ctx context.Context, conn Conn, query string, args Args) (int64, error) {
	c, named, err := pgxPrepare(conn, query, args)
	if err != nil {
		return 0, err
	}
	tag, err := c.Exec(ctx, query, named)
	if err != nil {
		return 0, err //nolint:wrapcheck // pass through
	}
	return tag.RowsAffected(), nil
}

func (PgxExecutor[T]) Scalar(ctx context.Context, conn Conn, dest any, query string, args Args) error {
	c, named, err := pgxPrepare(conn, query, args)
	if err != nil {
		return err
	}
	if err := c.QueryRow(ctx, query, named).Scan(dest); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoRows
		}
		return err //nolint:wrapcheck // pass through
	}
	return nil
}

func (e PgxExecutor[T]) rowTo() pgx.RowToFunc[T] {
	if e.mapper == nil {
		return pgx.RowToStructByNameLax[T]
	}
	return rowToStructByColumns[T](e.mapper)
}

// rowToStructByColumns assigns each result column to the field of T it
// maps to. Columns without a field are read and dropped.
func rowToStructByColumns[T any](m *columnMapper) pgx.RowToFunc[T] {
	return func(row pgx.CollectableRow) (T, error) {
		var v T
		rv := reflect.ValueOf(&v).Elem()
		if rv.Kind() != reflect.Struct {
			return v, fmt.Errorf("%w: %T is not a struct", ErrInvalidArgument, v)
		}

		fields := m.structColumns(rv.Type())
		descs := row.FieldDescriptions()
		dest := make([]any, len(descs))
		for i, fd := range descs {
			if idx, ok := fields.lookup(fd.Name); ok {
				dest[i] = rv.FieldByIndex(idx).Addr().Interface()
				continue
			}
			dest[i] = new(any)
		}
		return v, row.Scan(dest...) //nolint:wrapcheck // pass through
	}
}

// pgxPrepare checks that every @Name placeholder in query has a value, as
// Bind does for database/sql; pgx would otherwise bind it as NULL.
func pgxPrepare(conn Conn, query string, args Args) (*pgxConn, pgx.NamedArgs, error) {
	if _, _, err := Bind(query, args); err != nil {
		return nil, nil, err
	}
	c, err := pgxConnOf(conn)
	if err != nil {
		return nil, nil, err
	}
	return c, pgx.NamedArgs(args), nil
}

func pgxConnOf(conn Conn) (*pgxConn, error) {
	c, ok := conn.(*pgxConn)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrConnMismatch, conn)
	}
	return c, nil
}

// ExecutorFor returns the Executor matching the kind of factory f.
func ExecutorFor[T any](f ConnectionFactory) (Executor[T], error) {
	switch f.(type) {
	case *SQLFactory:
		return NewSQLExecutor[T](), nil
	case *PgxFactory:
		return NewPgxExecutor[T](), nil
	default:
		return nil, fmt.Errorf("%w: no executor for connection factory %T", ErrConnMismatch, f)
	}
}

var (
	_ ConnectionFactory     = (*PgxFactory)(nil)
	_ Executor[struct{}]    = PgxExecutor[struct{}]{}
	_ ColumnAware[struct{}] = PgxExecutor[struct{}]{}
)
