package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"fabriq/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes the engine branches on.
const (
	sqlstateUniqueViolation  = "23505"
	sqlstateForeignKey       = "23503"
	sqlstateLockNotAvailable = "55P03"
	sqlstateQueryCanceled    = "57014" // statement_timeout
)

// MapError translates driver errors into the platform error taxonomy.
// resource names what was being accessed (table or counter), for diagnostics.
func MapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateLockNotAvailable:
			return apperror.NewLockTimeout(resource).WithCause(err)
		case sqlstateUniqueViolation:
			return apperror.NewConflict("unique constraint violated").
				WithDetail("resource", resource).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case sqlstateForeignKey:
			return apperror.NewValidation("referenced record does not exist").
				WithDetail("resource", resource).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case sqlstateQueryCanceled:
			return apperror.NewInternal(err).WithDetail("resource", resource).
				WithDetail("cause", "statement_timeout")
		}
	}

	return err
}

// MapNumberError is MapError specialized for the document number column:
// a unique violation there means a duplicate (tenant, type, sequence) pair.
func MapNumberError(err error, docType string, number any) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlstateUniqueViolation {
		return apperror.NewDuplicateNumber(docType, number).WithCause(err)
	}
	return MapError(err, docType)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlstateUniqueViolation
}
