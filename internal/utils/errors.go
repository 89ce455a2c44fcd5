package utils

import "fmt"

// AppError carries the failing operation alongside a short human-readable
// message, so storage and cache failures surface with enough context to
// locate them without a stack trace.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Msg
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with the operation name and message.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
