package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"rentgate/internal/app/uow"
	"rentgate/internal/domain/shared/rejection"
)

const (
	sqlstateUniqueViolation      = "23505"
	sqlstateExclusionViolation   = "23P01"
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
	sqlstateLockNotAvailable     = "55P03"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// classify maps driver failures onto the application's error vocabulary.
func classify(err error) error {
	if err == nil {
		return nil
	}
	pgErr, ok := pgError(err)
	if !ok {
		return err
	}
	switch pgErr.Code {
	case sqlstateSerializationFailure, sqlstateDeadlockDetected, sqlstateLockNotAvailable:
		return fmt.Errorf("%w: %w", uow.ErrConflict, err)
	case sqlstateExclusionViolation:
		return rejection.New(rejection.DatesUnavailable, "requested dates overlap an existing reservation")
	}
	return err
}

func uniqueViolationOn(err error, constraint string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == sqlstateUniqueViolation && pgErr.ConstraintName == constraint
}
