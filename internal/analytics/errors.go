package analytics

import "fmt"

// ValidationError rejects a malformed or out-of-range report parameter.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// DataUnavailableError reports a failed read against the data store. Err is the underlying cause.
type DataUnavailableError struct {
	Op  string
	Err error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s: data store unavailable: %v", e.Op, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

func unavailable(op string, err error) error {
	return &DataUnavailableError{Op: op, Err: err}
}
