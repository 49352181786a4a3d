package feedback

import "fmt"

// ValidationError reports missing or malformed feedback input. It is
// returned immediately and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid feedback input: %s %s", e.Field, e.Reason)
}

// PersistenceError reports a failed case-store write. It is surfaced to
// the caller: losing ground-truth data silently would corrupt every
// downstream metric and pattern.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
