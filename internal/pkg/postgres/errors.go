package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeInvalidTextRepr      = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeTooManyConnections   = "53300"
	codeAdminShutdown        = "57P01"
)

// Classify maps a driver error onto the apperr taxonomy. Errors that are
// already classified, and nil, are returned unchanged.
func Classify(err error, op string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return apperr.Conflict("ALREADY_EXISTS", op+": "+constraintMessage(pgErr), err)
		case pgErr.Code == codeForeignKeyViolation:
			return apperr.Validation("UNKNOWN_REFERENCE", op+": referenced record does not exist")
		case pgErr.Code == codeCheckViolation, pgErr.Code == codeInvalidTextRepr:
			return apperr.Validation("INVALID_INPUT", op+": "+pgErr.Message)
		case pgErr.Code == codeSerializationFailure,
			pgErr.Code == codeDeadlockDetected,
			pgErr.Code == codeTooManyConnections,
			pgErr.Code == codeAdminShutdown,
			strings.HasPrefix(pgErr.Code, "08"):
			return apperr.Transient(op+": database temporarily unavailable", err)
		}
	}
	if errors.Is(err, driver.ErrBadConn) {
		return apperr.Transient(op+": database connection lost", err)
	}
	return apperr.Internal(op, err)
}

func constraintMessage(pgErr *pgconn.PgError) string {
	if pgErr.ConstraintName != "" {
		return "duplicate value violates " + pgErr.ConstraintName
	}
	return "duplicate value"
}

// RetryTransient runs fn and, if it fails with a transient error, runs it once
// more after backoff. Other errors are returned immediately.
func RetryTransient(ctx context.Context, backoff time.Duration, fn func() error) error {
	err := fn()
	if !apperr.IsTransient(err) {
		return err
	}
	t := time.NewTimer(backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return err
	case <-t.C:
	}
	return fn()
}
