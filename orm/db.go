package orm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "modernc.org/sqlite"             // registers "sqlite"
)

// Conn is a single connection handed out by a ConnectionFactory. The
// caller owns it and must Close it when the operation is done.
type Conn interface {
	Close() error
}

// ConnectionFactory acquires ready-to-use connections. Acquisition errors
// (connectivity, authentication, timeouts) are returned unchanged.
type ConnectionFactory interface {
	Connect(ctx context.Context) (Conn, error)
}

// Executor runs SQL text against a connection with a named parameter bag.
type Executor[T any] interface {
	// Select returns every row of query mapped to T.
	Select(ctx context.Context, conn Conn, query string, args Args) ([]T, error)

	// Get returns the single row of query, or false when there is none.
	Get(ctx context.Context, conn Conn, query string, args Args) (T, bool, error)

	// Exec runs query and returns the number of affected rows.
	Exec(ctx context.Context, conn Conn, query string, args Args) (int64, error)

	// Scalar scans the first column of the first row into dest.
	// It returns ErrNoRows when the statement yields no row.
	Scalar(ctx context.Context, conn Conn, dest any, query string, args Args) error
}

// ColumnAware is implemented by Executors that can map result columns to
// struct fields through an explicit field-to-column table, so that column
// overrides on an Entity are honored on reads.
type ColumnAware[T any] interface {
	WithColumns(columns map[string]string) Executor[T]
}

// SQLFactory hands out connections from a *sqlx.DB.
type SQLFactory struct {
	db    *sqlx.DB
	names func(string) string
}

// OpenSQL opens a database/sql pool for driverName and returns a factory
// whose row mapping follows a. The DSN must not be blank.
func OpenSQL(driverName, dsn string, a NameAdapter) (*SQLFactory, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: connection string is empty", ErrInvalidArgument)
	}
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("orm: open %s: %w", driverName, err)
	}
	return NewSQLFactory(db, a), nil
}

// NewSQLFactory wraps an existing pool. Struct fields are mapped to
// columns through a; a `db` struct tag takes precedence. A nil adapter
// keeps the pool's current mapper.
func NewSQLFactory(db *sqlx.DB, a NameAdapter) *SQLFactory {
	names := sqlx.NameMapper
	if a != nil {
		names = a.ColumnName
		db.Mapper = reflectx.NewMapperFunc("db", names)
	}
	return &SQLFactory{db: db, names: names}
}

// Connect acquires a dedicated connection from the pool.
func (f *SQLFactory) Connect(ctx context.Context) (Conn, error) {
	conn, err := f.db.Connx(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	return &sqlConn{
		Conn:     conn,
		bindType: sqlx.BindType(f.db.DriverName()),
		factory:  f,
	}, nil
}

// DB returns the underlying pool.
func (f *SQLFactory) DB() *sqlx.DB { return f.db }

// Close closes the underlying pool.
func (f *SQLFactory) Close() error { return f.db.Close() } //nolint:wrapcheck // thin wrapper

type sqlConn struct {
	*sqlx.Conn
	bindType int
	factory  *SQLFactory
}

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var _ ConnectionFactory = (*SQLFactory)(nil)
