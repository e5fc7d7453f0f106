package reconciliation

import (
	"errors"
	"fmt"
)

// Common reconciliation errors
var (
	// ErrMissingColumn is returned when a required column is absent from an input table.
	ErrMissingColumn = errors.New("required column is missing")

	// ErrInvalidAmount is returned when an amount cell cannot be used as an amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNegativeAmount is returned when an amount parses but is below zero.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrInvalidDate is returned when a date cell cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

// StructuralError reports a required column missing from an input table.
// It aborts the run before any allocation.
type StructuralError struct {
	// Table is the logical table name ("invoices" or "payments").
	Table string

	// Column is the canonical name of the missing column.
	Column string
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s table: column %q: %v", e.Table, e.Column, ErrMissingColumn)
}

// Unwrap returns ErrMissingColumn.
func (e *StructuralError) Unwrap() error {
	return ErrMissingColumn
}

// ValueConversionError reports a cell that could not be converted to the
// column's type.
type ValueConversionError struct {
	Table  string
	Line   int // 1-based line in the source, header included
	Column string
	Value  string
	Err    error
}

// Error implements the error interface.
func (e *ValueConversionError) Error() string {
	return fmt.Sprintf("%s table: line %d: column %q: value %q: %v", e.Table, e.Line, e.Column, e.Value, e.Err)
}

// Unwrap returns the underlying conversion error.
func (e *ValueConversionError) Unwrap() error {
	return e.Err
}

// ReconcileError wraps failures of the steps around the allocation with the
// operation that failed.
type ReconcileError struct {
	// Op is the operation that failed (e.g., "Load", "Export").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ReconcileError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("reconciliation: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("reconciliation: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// WrapReconcileError wraps err as a ReconcileError if it isn't already one.
func WrapReconcileError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var recErr *ReconcileError
	if errors.As(err, &recErr) {
		return err // Already wrapped
	}

	return &ReconcileError{Op: op, Err: err, Details: details}
}

// sourceLine converts a data row index into the 1-based line of the source
func sourceLine(row int) int {
	return row + 2
}
