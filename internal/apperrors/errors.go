package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested record could not be found.
var ErrNotFound = errors.New("record not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrConsistency indicates that a transaction row and the balances it implies disagreed
// while being written. Callers should never present it as a retryable failure.
var ErrConsistency = errors.New("ledger consistency failure")

// ConsistencyError reports a balance step that failed after its transaction row was written.
// It carries enough detail for manual reconciliation.
type ConsistencyError struct {
	IncidentID    string
	Op            string
	TransactionID int64
	AccountID     int64
	Delta         float64
	// RolledBack is true when the row write was undone together with the balance step.
	RolledBack bool
	Err        error
}

func (e *ConsistencyError) Error() string {
	state := "not rolled back"
	if e.RolledBack {
		state = "rolled back"
	}
	return fmt.Sprintf("%s: %s transaction %d: account %d delta %v (%s, incident %s): %v",
		ErrConsistency, e.Op, e.TransactionID, e.AccountID, e.Delta, state, e.IncidentID, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }

// Validation wraps a message as a validation failure.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
