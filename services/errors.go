package services

import "fmt"

// ValidationError covers bad input from the caller: invalid identifiers,
// missing title, triggering a reminder on a disabled task. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned by single-item operations for unknown ids.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// DeliveryError wraps a Notifier failure. Inside a batch it is caught per
// task and converted into a failed reminder state plus a log row; it never
// propagates past the batch boundary.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery via %s failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
