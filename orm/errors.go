package orm

import "errors"

var (
	// ErrInvalidArgument is returned before any SQL is produced when a caller
	// passes a nil or empty input that cannot yield a well-formed statement.
	ErrInvalidArgument = errors.New("orm: invalid argument")

	// ErrNoRows is returned by Executor.Scalar when the statement yields no row.
	ErrNoRows = errors.New("orm: no rows in result set")

	// ErrNoGeneratedKey is returned by Add when the insert did not report
	// the generated identity.
	ErrNoGeneratedKey = errors.New("orm: failed to retrieve inserted ID")

	// ErrConnMismatch is returned when an Executor receives a Conn produced
	// by a different kind of ConnectionFactory.
	ErrConnMismatch = errors.New("orm: connection type does not match executor")
)
