package polaudit

import "github.com/kailas-cloud/polaudit/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound           = domain.ErrNotFound
	ErrInvalidQuery       = domain.ErrInvalidQuery
	ErrUnknownSubject     = domain.ErrUnknownSubject
	ErrInvalidFeedback    = domain.ErrInvalidFeedback
	ErrInvalidRelevancy   = domain.ErrInvalidRelevancy
	ErrSearchUnavailable  = domain.ErrSearchUnavailable
	ErrLockTimeout        = domain.ErrLockTimeout
	ErrCompensationFailed = domain.ErrCompensationFailed
)

// ServiceError is the status reported by the search service. Use errors.As.
type ServiceError = domain.ServiceError
