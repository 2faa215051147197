package ledger

import "fmt"

// DuplicateError reports that a person already has an event for the day.
type DuplicateError struct {
	PersonType PersonType
	Key        string // student code or visitor national ID
	Date       string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s attendance for %q on %s", e.PersonType, e.Key, e.Date)
}

// ValidationError reports a required field missing from a candidate.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// NotFoundError reports a delete target that no longer exists.
type NotFoundError struct {
	Timestamp string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no attendance event with timestamp %s", e.Timestamp)
}

// StorageError wraps a failed persistence flush. The in-memory mutation it
// accompanies has already been applied; callers decide how loudly to warn.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage flush after %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
