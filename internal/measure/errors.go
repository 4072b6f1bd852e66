package measure

import (
	"errors"
	"fmt"
)

// LedgerError represents a caller contract violation detected by the
// measurement core.
//
// Misuse errors include:
//   - Out-of-range index: Finish called with an index that has no record
//   - Already completed: Finish called twice for the same index
//
// These signal misuse of the index contract by the host, not a
// recoverable runtime condition. They are surfaced as typed errors so
// the host decides severity instead of the core aborting the process.
type LedgerError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Index identifies the affected execution.
	Index Index

	// Block identifies the block recorded by the first Finish
	// (double-finish) or the report entry at fault (internal errors).
	Block BlockID
}

// ErrorCode categorizes measurement errors.
type ErrorCode string

const (
	// ErrCodeIndexOutOfRange indicates an index with no record in the current batch.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeAlreadyCompleted indicates a second Finish for the same index.
	ErrCodeAlreadyCompleted ErrorCode = "ALREADY_COMPLETED"

	// ErrCodeInternal indicates an internal consistency violation, such
	// as a report entry with zero samples.
	ErrCodeInternal ErrorCode = "INTERNAL_INCONSISTENCY"
)

// Error implements the error interface.
func (e *LedgerError) Error() string {
	switch {
	case e.Code == ErrCodeInternal:
		return fmt.Sprintf("%s: %s (block=%s)", e.Code, e.Message, e.Block)
	case e.Block != "":
		return fmt.Sprintf("%s: %s (index=%d, block=%s)", e.Code, e.Message, e.Index, e.Block)
	default:
		return fmt.Sprintf("%s: %s (index=%d)", e.Code, e.Message, e.Index)
	}
}

// IsOutOfRange returns true if the error is an out-of-range index error.
// Uses errors.As to handle wrapped errors.
func IsOutOfRange(err error) bool {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Code == ErrCodeIndexOutOfRange
	}
	return false
}

// IsAlreadyCompleted returns true if the error is a double-finish error.
// Uses errors.As to handle wrapped errors.
func IsAlreadyCompleted(err error) bool {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Code == ErrCodeAlreadyCompleted
	}
	return false
}

// newOutOfRangeError creates a LedgerError for an index outside the batch.
func newOutOfRangeError(idx Index, size int) *LedgerError {
	return &LedgerError{
		Code:    ErrCodeIndexOutOfRange,
		Message: fmt.Sprintf("no record at index (batch holds %d)", size),
		Index:   idx,
	}
}

// newAlreadyCompletedError creates a LedgerError for a double finish.
func newAlreadyCompletedError(idx Index, block BlockID) *LedgerError {
	return &LedgerError{
		Code:    ErrCodeAlreadyCompleted,
		Message: "measurement already completed",
		Index:   idx,
		Block:   block,
	}
}

// newInternalError creates a LedgerError for a report entry with no samples.
func newInternalError(block BlockID) *LedgerError {
	return &LedgerError{
		Code:    ErrCodeInternal,
		Message: "report entry has no samples",
		Block:   block,
	}
}
