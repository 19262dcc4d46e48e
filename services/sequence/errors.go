package sequence

import (
	"errors"
	"fmt"
)

// Sentinel errors for the sequence core. Callers match with errors.Is; the
// structured types below carry class/day detail for API responses.
var (
	// Precondition errors (caller's fault, not retried internally)
	ErrSequenceUninitialized     = errors.New("sequence uninitialized")
	ErrAttendanceRequired        = errors.New("attendance reference required")
	ErrInvalidCancellationReason = errors.New("invalid cancellation reason")
	ErrInvalidTransition         = errors.New("invalid status transition")

	// Transient: caller should re-read and retry
	ErrConcurrentModification = errors.New("concurrent modification")

	// Data integrity: requires administrative resolution, never auto-fixed
	ErrGenerationConflict = errors.New("generation conflict")
	ErrSequenceCorruption = errors.New("sequence corruption")

	// Terminal signal, not a failure: every day is conducted or cancelled
	ErrAllSessionsComplete = errors.New("all sessions complete")
)

// UninitializedError is returned when a class has no session records at all.
// Callers must trigger bulk generation before querying the sequence.
type UninitializedError struct {
	ClassID uint
}

func (e *UninitializedError) Error() string {
	return fmt.Sprintf("class %d: %v", e.ClassID, ErrSequenceUninitialized)
}

func (e *UninitializedError) Unwrap() error { return ErrSequenceUninitialized }

// CompleteError signals that every day of a class's sequence is done.
type CompleteError struct {
	ClassID uint
}

func (e *CompleteError) Error() string {
	return fmt.Sprintf("class %d: %v", e.ClassID, ErrAllSessionsComplete)
}

func (e *CompleteError) Unwrap() error { return ErrAllSessionsComplete }

// TransitionError reports a rejected status transition with enough detail for
// the caller to act on: the attempted edge plus, for stale reads, the status
// actually found in storage.
type TransitionError struct {
	ClassID   uint
	DayNumber int
	From      Status
	To        Status
	Expected  Status // status the caller observed
	Actual    Status // status found at write time (concurrent modification only)
	Err       error
}

func (e *TransitionError) Error() string {
	if errors.Is(e.Err, ErrConcurrentModification) {
		return fmt.Sprintf("class %d day %d: %v (expected %q, found %q)",
			e.ClassID, e.DayNumber, e.Err, e.Expected, e.Actual)
	}
	return fmt.Sprintf("class %d day %d: %v (%q -> %q)", e.ClassID, e.DayNumber, e.Err, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// GenerationConflictError indicates duplicate records for one or more day
// numbers, found while generating. Reported, never auto-repaired.
type GenerationConflictError struct {
	ClassID uint
	Days    []int
}

func (e *GenerationConflictError) Error() string {
	return fmt.Sprintf("class %d: %v on days %v", e.ClassID, ErrGenerationConflict, e.Days)
}

func (e *GenerationConflictError) Unwrap() error { return ErrGenerationConflict }

// CorruptionError summarizes structural damage found by the integrity
// validator: duplicate day numbers and/or days outside the valid range.
type CorruptionError struct {
	ClassID    uint
	Duplicates []int
	OutOfRange []int
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("class %d: %v (duplicates %v, out of range %v)",
		e.ClassID, ErrSequenceCorruption, e.Duplicates, e.OutOfRange)
}

func (e *CorruptionError) Unwrap() error { return ErrSequenceCorruption }
