package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizbot/domain/services"
	"quizbot/infrastructure/observability"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// Postgres error codes that are safe to retry with a fresh transaction
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateUniqueViolation      = "23505"
)

// racyUniqueIndexes guard rows that are read first and inserted when missing.
// Two transactions can both miss the row; the loser's retry reads the winner's.
var racyUniqueIndexes = map[string]bool{
	"idx_temporary_grants_current": true,
}

// IsRetryable reports whether err is a transient lock or serialization failure,
// or a lost insert race on one of racyUniqueIndexes
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return true
	case sqlStateUniqueViolation:
		return racyUniqueIndexes[pgErr.ConstraintName]
	}
	return false
}

func newRetryBackOff(ctx context.Context, maxRetries uint64) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 20 * time.Millisecond
	exp.MaxInterval = 500 * time.Millisecond
	exp.MaxElapsedTime = 5 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(exp, maxRetries), ctx)
}

// withRetry runs fn until it succeeds, fails permanently or the retry budget is spent.
// Exhausted transient failures surface as services.ErrConcurrencyConflict.
func withRetry(ctx context.Context, operation string, maxRetries uint64, fn func() error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		observability.GetMetrics().RecordTransactionRetry(operation)
		log.WithFields(log.Fields{
			"operation": operation,
			"attempt":   attempt,
			"wait":      wait,
			"error":     err,
		}).Debug("Retrying transaction after conflict")
	}

	err := backoff.RetryNotify(op, newRetryBackOff(ctx, maxRetries), notify)
	if err != nil && IsRetryable(err) {
		log.WithFields(log.Fields{
			"operation": operation,
			"attempts":  attempt,
		}).Warn("Transaction retries exhausted")
		return fmt.Errorf("%s: %w: %v", operation, services.ErrConcurrencyConflict, err)
	}
	return err
}
