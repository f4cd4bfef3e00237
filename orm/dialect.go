package orm

import (
	"fmt"
	"sync"
)

// Dialect abstracts how an engine hands back the generated identity of an
// inserted row. Naming policy is not part of a Dialect; it lives in the
// NameAdapter.
type Dialect interface {
	// Name returns a short identifier such as "postgres".
	Name() string

	// OutputClause returns text placed between the INSERT column list and
	// VALUES. Returns an empty string for dialects that use RETURNING.
	OutputClause(idColumn string) string

	// ReturningClause returns text appended after the VALUES list.
	// Returns an empty string for dialects that use OUTPUT.
	ReturningClause(idColumn string) string
}

// PostgreSQL returns the generated key with a trailing RETURNING clause.
var PostgreSQL Dialect = returningDialect{name: "postgres"}

// SQLite speaks the PostgreSQL RETURNING form (SQLite 3.35+).
var SQLite Dialect = returningDialect{name: "sqlite"}

// MariaDB speaks the PostgreSQL RETURNING form (MariaDB 10.5+).
var MariaDB Dialect = returningDialect{name: "mariadb"}

// SQLServer returns the generated key with an OUTPUT INSERTED clause.
var SQLServer Dialect = outputDialect{}

type returningDialect struct{ name string }

func (d returningDialect) Name() string                   { return d.name }
func (returningDialect) OutputClause(_ string) string     { return "" }
func (returningDialect) ReturningClause(pk string) string { return " RETURNING " + pk }

type outputDialect struct{}

func (outputDialect) Name() string                    { return "sqlserver" }
func (outputDialect) OutputClause(pk string) string   { return " OUTPUT INSERTED." + pk }
func (outputDialect) ReturningClause(_ string) string { return "" }

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{
		"pgx":       PostgreSQL,
		"postgres":  PostgreSQL,
		"sqlite":    SQLite,
		"mysql":     MariaDB,
		"sqlserver": SQLServer,
	}
)

// RegisterDialect associates a database/sql driver name with a Dialect.
func RegisterDialect(driverName string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[driverName] = d
}

// DialectFor returns the Dialect registered for driverName.
func DialectFor(driverName string) (Dialect, error) {
	dialectMu.RLock()
	defer dialectMu.RUnlock()
	d, ok := dialects[driverName]
	if !ok {
		return nil, fmt.Errorf("orm: no dialect registered for driver %q", driverName)
	}
	return d, nil
}
