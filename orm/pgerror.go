package orm

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLState returns the PostgreSQL SQLSTATE carried by err, from either the
// pgx or the lib/pq driver, or "" when err carries none. Repository never
// translates driver errors itself; these helpers let callers classify them.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return SQLState(err) == pgerrcode.UniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return SQLState(err) == pgerrcode.ForeignKeyViolation
}

// IsNotNullViolation reports whether err is a NOT NULL violation.
func IsNotNullViolation(err error) bool {
	return SQLState(err) == pgerrcode.NotNullViolation
}

// IsCheckViolation reports whether err is a check constraint violation.
func IsCheckViolation(err error) bool {
	return SQLState(err) == pgerrcode.CheckViolation
}

// IsIntegrityViolation reports whether err belongs to the integrity
// constraint violation class (SQLSTATE 23xxx).
func IsIntegrityViolation(err error) bool {
	return strings.HasPrefix(SQLState(err), "23")
}
