package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a search request with missing or oversized parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownSubject signals a subject with no configured collection.
	ErrUnknownSubject = errors.New("unknown subject")
	// ErrInvalidFeedback signals a feedback request with missing fields.
	ErrInvalidFeedback = errors.New("invalid feedback")
	// ErrInvalidRelevancy signals a relevancy outside the allowed enumeration.
	ErrInvalidRelevancy = errors.New("invalid relevancy")
	// ErrSearchUnavailable signals a failure of the external search/training service.
	ErrSearchUnavailable = errors.New("search service error")
	// ErrLockTimeout signals that the per-subject writer lock could not be acquired in time.
	ErrLockTimeout = errors.New("subject lock timeout")
	// ErrCompensationFailed signals that an evicted training query could not be restored
	// after the replacing insertion failed.
	ErrCompensationFailed = errors.New("training query compensation failed")
)

// ServiceError carries the status code and message reported by the external
// search/training service.
type ServiceError struct {
	Code    int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrSearchUnavailable.Error(), e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrSearchUnavailable.Error(), e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return ErrSearchUnavailable }

// NewServiceError creates a ServiceError.
func NewServiceError(code int, message string) error {
	return &ServiceError{Code: code, Message: message}
}

// Temporary reports whether the failure is worth retrying: throttling or a server-side error.
func (e *ServiceError) Temporary() bool {
	return e.Code == 429 || e.Code >= 500
}
