// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInconsistentState = errors.New("inconsistent state")
	ErrLedgerWrite       = errors.New("ledger write failed")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrDataNotFound      = errors.New("data not found")
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrFeedUnavailable   = errors.New("market data feed unavailable")
	ErrDatabaseError     = errors.New("database error")
)

// InvalidInputError reports a snapshot field outside its declared range.
// Bad input aborts the cycle; it is never repaired or clamped.
type InvalidInputError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewInvalidInputError creates a new InvalidInputError.
func NewInvalidInputError(field string, value interface{}, message string) *InvalidInputError {
	return &InvalidInputError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// InconsistentStateError reports a state machine invariant violation, such
// as opening a position when one is already open. Fatal to the cycle.
type InconsistentStateError struct {
	Instrument string
	State      string
	Event      string
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("inconsistent state [%s] in %s: %s", e.Instrument, e.State, e.Event)
}

func (e *InconsistentStateError) Is(target error) bool {
	return target == ErrInconsistentState
}

// NewInconsistentStateError creates a new InconsistentStateError.
func NewInconsistentStateError(instrument, state, event string) *InconsistentStateError {
	return &InconsistentStateError{
		Instrument: instrument,
		State:      state,
		Event:      event,
	}
}

// LedgerWriteError reports that the durability layer could not persist a
// trade record. The triggering transition must not commit until the append
// succeeds.
type LedgerWriteError struct {
	Path string
	Err  error
}

func (e *LedgerWriteError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("ledger write failed [%s]: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("ledger write failed: %v", e.Err)
}

func (e *LedgerWriteError) Unwrap() error {
	return e.Err
}

func (e *LedgerWriteError) Is(target error) bool {
	return target == ErrLedgerWrite
}

// NewLedgerWriteError creates a new LedgerWriteError.
func NewLedgerWriteError(path string, err error) *LedgerWriteError {
	return &LedgerWriteError{
		Path: path,
		Err:  err,
	}
}

// DatabaseError represents an error from the outcome store.
type DatabaseError struct {
	Operation string
	Err       error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error: %s: %v", e.Operation, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

func (e *DatabaseError) Is(target error) bool {
	return target == ErrDatabaseError
}

// NewDatabaseError creates a new DatabaseError.
func NewDatabaseError(operation string, err error) *DatabaseError {
	return &DatabaseError{
		Operation: operation,
		Err:       err,
	}
}

// ProviderError represents an error from an external score provider.
type ProviderError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error [%s] %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, operation string, err error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Operation: operation,
		Err:       err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
