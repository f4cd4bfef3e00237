package orm

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

var errMockNotImplemented = errors.New("mock: not implemented")

// TestFactory is a ConnectionFactory that hands out TestConns and counts
// how many are still open. Exported for use in orm_test package.
type TestFactory struct {
	mu     sync.Mutex
	Opened int
	Closed int
	Err    error
}

// TestConn is the Conn produced by TestFactory.
type TestConn struct {
	f *TestFactory
}

func (c *TestConn) Close() error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	c.f.Closed++
	return nil
}

func (f *TestFactory) Connect(_ context.Context) (Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.Opened++
	return &TestConn{f: f}, nil
}

// Open returns the number of connections not yet closed.
func (f *TestFactory) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Opened - f.Closed
}

// TestQuery holds a captured statement and its parameter bag.
type TestQuery struct {
	Op   string
	SQL  string
	Args Args
}

// TestExecutor is an Executor that records statements and returns canned
// results.
type TestExecutor[T any] struct {
	Queries []TestQuery

	Rows     []T
	Row      *T
	Affected int64
	ScalarV  any
	Err      error

	// Columns is the field-to-column table handed over by NewRepository.
	Columns map[string]string
}

// WithColumns records columns and keeps using e.
func (e *TestExecutor[T]) WithColumns(columns map[string]string) Executor[T] {
	e.Columns = columns
	return e
}

func (e *TestExecutor[T]) record(op, query string, args Args) {
	e.Queries = append(e.Queries, TestQuery{Op: op, SQL: query, Args: args})
}

func (e *TestExecutor[T]) Select(_ context.Context, _ Conn, query string, args Args) ([]T, error) {
	e.record("select", query, args)
	return e.Rows, e.Err
}

func (e *TestExecutor[T]) Get(_ context.Context, _ Conn, query string, args Args) (T, bool, error) {
	e.record("get", query, args)
	var zero T
	if e.Err != nil {
		return zero, false, e.Err
	}
	if e.Row == nil {
		return zero, false, nil
	}
	return *e.Row, true, nil
}

func (e *TestExecutor[T]) Exec(_ context.Context, _ Conn, query string, args Args) (int64, error) {
	e.record("exec", query, args)
	return e.Affected, e.Err
}

func (e *TestExecutor[T]) Scalar(_ context.Context, _ Conn, dest any, query string, args Args) error {
	e.record("scalar", query, args)
	if e.Err != nil {
		return e.Err
	}
	if e.ScalarV == nil {
		return ErrNoRows
	}
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return errMockNotImplemented
	}
	dv.Elem().Set(reflect.ValueOf(e.ScalarV))
	return nil
}

// LastQuery returns the most recently captured statement, or panics if empty.
func (e *TestExecutor[T]) LastQuery() TestQuery {
	return e.Queries[len(e.Queries)-1]
}

var (
	_ ConnectionFactory     = (*TestFactory)(nil)
	_ Executor[struct{}]    = (*TestExecutor[struct{}])(nil)
	_ ColumnAware[struct{}] = (*TestExecutor[struct{}])(nil)
)
