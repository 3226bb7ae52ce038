package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before anything is sent to the backend.
	ErrValidation = errors.New("validation failed")
	// ErrLimitExceeded signals that the user already has link_limit links.
	ErrLimitExceeded = errors.New("link limit reached")
	// ErrInvalidIndex is returned by Reorder for positions outside the collection.
	ErrInvalidIndex = errors.New("invalid index")
	// ErrLinkNotFound signals that the link is not part of the local collection.
	ErrLinkNotFound = errors.New("link not found")
	// ErrRecordBusy is returned while another operation on the same record is in flight.
	ErrRecordBusy = errors.New("operation already pending for this link")
	// ErrPersistenceFailure matches every *PersistenceError.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrProfileNotFound signals an unknown public username.
	ErrProfileNotFound = errors.New("profile not found")
)

// Operation names used in errors, logs and notifications.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpReorder = "reorder"
	OpProfile = "update_profile"
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PersistenceError reports a failed backend call together with the operation and
// the link it concerned (LinkID is zero for create).
type PersistenceError struct {
	Op     string
	LinkID int64
	Err    error
}

func (e *PersistenceError) Error() string {
	if e.LinkID == 0 {
		return fmt.Sprintf("%s link: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s link %d: %v", e.Op, e.LinkID, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceFailure, e.Err}
}

// statusCoder is implemented by gateway errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// HTTPStatus extracts the backend status code from err, or 0 when there is none.
func HTTPStatus(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

// joinLimit marks a backend rejection of create as a limit violation.
func joinLimit(err error) error {
	return fmt.Errorf("%w: %w", ErrLimitExceeded, err)
}
