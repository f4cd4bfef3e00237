package orm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Store is the CRUD surface over one entity type.
type Store[K comparable, T any] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id K) (T, bool, error)
	Add(ctx context.Context, t *T) error
	Update(ctx context.Context, t *T) (bool, error)
	Delete(ctx context.Context, id K) (bool, error)
}

// Repository composes a QueryBuilder, a ConnectionFactory and an Executor
// into a Store. Each operation acquires a fresh connection and releases it
// before returning.
type Repository[K comparable, T any] struct {
	factory ConnectionFactory
	builder QueryBuilder
	mapping Mapping[K, T]
	exec    Executor[T]
	logger  *zap.Logger

	insertFields []string
	updateFields []string
}

// RepositoryOption configures a Repository.
type RepositoryOption[K comparable, T any] func(r *Repository[K, T])

// WithExecutor overrides the Executor picked from the factory.
func WithExecutor[K comparable, T any](e Executor[T]) RepositoryOption[K, T] {
	return func(r *Repository[K, T]) {
		r.exec = e
	}
}

// WithLogger logs every statement at debug level and failures at warn level.
func WithLogger[K comparable, T any](l *zap.Logger) RepositoryOption[K, T] {
	return func(r *Repository[K, T]) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRepository returns a Repository for m. Without WithExecutor the
// Executor is chosen by ExecutorFor.
//
// b must be built from the entity NewMapping resolves: when T implements
// TableNamer, a builder still naming the raw table is rejected. When b
// exposes its field columns and the Executor is ColumnAware, reads map
// columns back to fields through the same table.
func NewRepository[K comparable, T any](
	f ConnectionFactory,
	b QueryBuilder,
	m Mapping[K, T],
	opts ...RepositoryOption[K, T],
) (*Repository[K, T], error) {
	if f == nil {
		return nil, fmt.Errorf("%w: connection factory is nil", ErrInvalidArgument)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: query builder is nil", ErrInvalidArgument)
	}
	m, err := NewMapping(m)
	if err != nil {
		return nil, err
	}
	if tb, ok := b.(interface{ Table() string }); ok && m.Entity.Table != "" && tb.Table() != m.Entity.Table {
		return nil, fmt.Errorf("%w: builder table %q does not match %s table %q",
			ErrInvalidArgument, tb.Table(), m.Entity.Name, m.Entity.Table)
	}

	fields := m.Entity.FieldNames()
	r := &Repository[K, T]{
		factory:      f,
		builder:      b,
		mapping:      m,
		logger:       zap.NewNop(),
		insertFields: fields,
		updateFields: fields,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.exec == nil {
		r.exec, err = ExecutorFor[T](f)
		if err != nil {
			return nil, err
		}
	}
	if cb, ok := b.(interface{ Columns() map[string]string }); ok {
		if ca, ok := r.exec.(ColumnAware[T]); ok {
			r.exec = ca.WithColumns(cb.Columns())
		}
	}
	r.logger = r.logger.With(zap.String("entity", m.Entity.Name))
	return r, nil
}

// GetAll returns every row of the table.
func (r *Repository[K, T]) GetAll(ctx context.Context) ([]T, error) {
	query := r.builder.BuildSelectAll()

	var out []T
	err := r.withConn(ctx, "get_all", query, func(conn Conn) error {
		var err error
		out, err = r.exec.Select(ctx, conn, query, nil)
		return err
	})
	return out, err
}

// GetByID returns the row with the given identity. found is false, with a
// nil error, when there is none.
func (r *Repository[K, T]) GetByID(ctx context.Context, id K) (T, bool, error) {
	query := r.builder.BuildSelectByID()

	var (
		out   T
		found bool
	)
	err := r.withConn(ctx, "get_by_id", query, func(conn Conn) error {
		var err error
		out, found, err = r.exec.Get(ctx, conn, query, Args{IDParam: id})
		return err
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return out, found, nil
}

// Add inserts t and stores the generated identity on it.
func (r *Repository[K, T]) Add(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidArgument)
	}
	query, err := r.builder.BuildInsert(r.insertFields)
	if err != nil {
		return err
	}

	var id K
	err = r.withConn(ctx, "add", query, func(conn Conn) error {
		return r.exec.Scalar(ctx, conn, &id, query, r.mapping.Args(t))
	})
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNoGeneratedKey, r.mapping.Entity.Name)
		}
		return err
	}
	r.mapping.SetID(t, id)
	return nil
}

// Update writes every non-identity field of t. It reports false when no
// row has t's identity.
func (r *Repository[K, T]) Update(ctx context.Context, t *T) (bool, error) {
	if t == nil {
		return false, fmt.Errorf("%w: entity is nil", ErrInvalidArgument)
	}
	query, err := r.builder.BuildUpdate(r.updateFields)
	if err != nil {
		return false, err
	}

	fieldArgs := r.mapping.Args(t)
	args := make(Args, len(fieldArgs)+1)
	for k, v := range fieldArgs {
		args[k] = v
	}
	args[IDParam] = r.mapping.ID(t)

	var affected int64
	err = r.withConn(ctx, "update", query, func(conn Conn) error {
		var err error
		affected, err = r.exec.Exec(ctx, conn, query, args)
		return err
	})
	return affected > 0, err
}

// Delete removes the row with the given identity. It reports false when
// there was none.
func (r *Repository[K, T]) Delete(ctx context.Context, id K) (bool, error) {
	query := r.builder.BuildDelete()

	var affected int64
	err := r.withConn(ctx, "delete", query, func(conn Conn) error {
		var err error
		affected, err = r.exec.Exec(ctx, conn, query, Args{IDParam: id})
		return err
	})
	return affected > 0, err
}

// withConn acquires a connection, runs fn and releases the connection.
func (r *Repository[K, T]) withConn(ctx context.Context, op, query string, fn func(conn Conn) error) (err error) {
	start := time.Now()
	defer func() {
		fields := []zap.Field{
			zap.String("op", op),
			zap.String("sql", query),
			zap.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			r.logger.Warn("statement failed", append(fields, zap.Error(err))...)
			return
		}
		r.logger.Debug("statement executed", fields...)
	}()

	conn, err := r.factory.Connect(ctx)
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(conn)
}

var _ Store[int64, struct{}] = (*Repository[int64, struct{}])(nil)
