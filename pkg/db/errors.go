package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
)

// Postgres error classes we translate for API responses.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation reports whether err is a Postgres unique violation.
// When constraintName is provided the constraint must also match.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pgCode(err) == pgUniqueViolation {
		if constraintName == "" {
			return true
		}
		return strings.Contains(err.Error(), constraintName)
	}
	// Fallback for drivers that flatten the error into a string.
	return strings.Contains(err.Error(), "duplicate key value")
}

// IsForeignKeyViolation reports whether err is a Postgres FK violation.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return pgCode(err) == pgForeignKeyViolation ||
		strings.Contains(err.Error(), "violates foreign key constraint")
}

// TranslateError maps constraint violations onto domain error codes:
// unique violations become conflicts (409), FK violations become
// validation errors (400). Anything else is a dependency failure.
func TranslateError(err error, message string) error {
	if err == nil {
		return nil
	}
	switch {
	case IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	case IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, message)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
	}
}
