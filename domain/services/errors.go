package services

import (
	"errors"
	"fmt"

	"quizbot/domain/entities"
)

var (
	// ErrAlreadyResolved is returned when another answer or sweep settled the state first
	ErrAlreadyResolved = errors.New("already resolved")

	// ErrConcurrencyConflict is returned when lock or serialization retries were exhausted
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrInvariantViolation marks a broken core invariant. It is never corrected automatically.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrNoQuestions is returned when the shared question pool is empty
	ErrNoQuestions = errors.New("question pool is empty")

	// ErrInvalidInput wraps a rejected admin or player argument. The wrapped message is safe to show.
	ErrInvalidInput = errors.New("invalid input")
)

// IneligibleError carries a failed guard result to the caller
type IneligibleError struct {
	Eligibility entities.Eligibility
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("not eligible: %s", e.Eligibility)
}

// NewIneligibleError wraps a failing guard result
func NewIneligibleError(eligibility entities.Eligibility) error {
	return &IneligibleError{Eligibility: eligibility}
}

// AsIneligible extracts the guard result from an error chain
func AsIneligible(err error) (entities.Eligibility, bool) {
	var ineligible *IneligibleError
	if errors.As(err, &ineligible) {
		return ineligible.Eligibility, true
	}
	return entities.Eligibility{}, false
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
