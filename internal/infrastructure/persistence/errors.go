package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pharmstock/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Postgres error codes that indicate the transaction lost a race with another
// one and can be retried after a rollback.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// translateError maps driver and GORM errors onto the domain error taxonomy.
// Not-found and lock-conflict conditions become their domain sentinels so the
// application layer never inspects SQLSTATEs; anything else passes through
// unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return shared.ErrConcurrencyConflict
		}
	}

	return err
}
