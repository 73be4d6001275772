package habits

import (
	"errors"
	"fmt"
)

// Common errors returned by the habits library.
var (
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrUserNotFound is returned when a user cannot be resolved.
	ErrUserNotFound = errors.New("user not found")

	// ErrHabitNotFound is returned when a habit id does not exist.
	ErrHabitNotFound = errors.New("habit not found")

	// ErrEmptyControlSet indicates a cluster had no records outside it
	// to contrast against. Per-cluster skip, not a run abort.
	ErrEmptyControlSet = errors.New("no control records to contrast against")

	// ErrNoTriggers indicates no coefficient cleared the trigger
	// threshold for a cluster. Per-cluster skip, not a run abort.
	ErrNoTriggers = errors.New("no trigger coefficients above threshold")

	// ErrNoRecords is returned when fitting an encoder over an empty
	// record set.
	ErrNoRecords = errors.New("no records to encode")

	// ErrAnalysisInProgress is returned when a second analysis run is
	// started for a user whose previous run has not finished. The
	// clear-then-rebuild policy is unsafe under concurrent execution.
	ErrAnalysisInProgress = errors.New("analysis already in progress for user")
)

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ClusterSkipError records why one cluster contributed nothing to a
// run. It wraps the underlying cause so callers can test against the
// sentinel skip reasons with errors.Is().
type ClusterSkipError struct {
	Label int
	Err   error
}

func (e *ClusterSkipError) Error() string {
	return fmt.Sprintf("cluster %d skipped: %v", e.Label, e.Err)
}

func (e *ClusterSkipError) Unwrap() error { return e.Err }
