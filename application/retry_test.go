package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"quizbot/domain/services"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, true},
		{"wrapped lock timeout", fmt.Errorf("failed to lock account: %w", &pgconn.PgError{Code: "55P03"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"unrelated unique index", &pgconn.PgError{Code: "23505", ConstraintName: "idx_answer_records_golden_attempt"}, false},
		{"lost grant insert race", fmt.Errorf("failed to create vip grant for 4: %w",
			&pgconn.PgError{Code: "23505", ConstraintName: "idx_temporary_grants_current"}), true},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := withRetry(context.Background(), "test", 3, func() error {
			calls++
			if calls < 3 {
				return &pgconn.PgError{Code: "40P01"}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted retries become a concurrency conflict", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := withRetry(context.Background(), "test", 2, func() error {
			calls++
			return &pgconn.PgError{Code: "55P03"}
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrConcurrencyConflict)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := withRetry(context.Background(), "test", 3, func() error {
			calls++
			return services.ErrAlreadyResolved
		})
		assert.ErrorIs(t, err, services.ErrAlreadyResolved)
		assert.NotErrorIs(t, err, services.ErrConcurrencyConflict)
		assert.Equal(t, 1, calls)
	})

	t.Run("ineligibility passes through untouched", func(t *testing.T) {
		t.Parallel()
		err := withRetry(context.Background(), "test", 3, func() error {
			return services.ErrNoQuestions
		})
		assert.ErrorIs(t, err, services.ErrNoQuestions)
	})
}
