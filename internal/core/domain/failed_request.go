package domain

import "time"

// StatusClass is the classification of a failed logical request.
type StatusClass string

const (
	ClassUnauthorized      StatusClass = "unauthorized"
	ClassForbidden         StatusClass = "forbidden"
	ClassNotFound          StatusClass = "not_found"
	ClassValidationFailed  StatusClass = "validation_failed"
	ClassRateLimited       StatusClass = "rate_limited"
	ClassServerError       StatusClass = "server_error"
	ClassNetworkError      StatusClass = "network_error"
	ClassRequestSetupError StatusClass = "request_setup_error"
	ClassUnknown           StatusClass = "unknown"
)

// AllClasses lists every status class in reporting order.
var AllClasses = []StatusClass{
	ClassUnauthorized,
	ClassForbidden,
	ClassNotFound,
	ClassValidationFailed,
	ClassRateLimited,
	ClassServerError,
	ClassNetworkError,
	ClassRequestSetupError,
	ClassUnknown,
}

// Transient reports whether the class is recovered locally while the
// retry budget lasts.
func (c StatusClass) Transient() bool {
	switch c {
	case ClassRateLimited, ClassServerError, ClassNetworkError:
		return true
	}
	return false
}

// FailedRequest is a journal entry for a logical request that ended in a
// classified failure.
type FailedRequest struct {
	ID               string      `json:"id"`
	RequestID        string      `json:"request_id"`
	Method           string      `json:"method"`
	URL              string      `json:"url"`
	Class            StatusClass `json:"class"`
	StatusCode       int         `json:"status_code"`
	Message          string      `json:"message"`
	ValidationFields []string    `json:"validation_fields,omitempty"`
	Attempts         int         `json:"attempts"`
	OccurredAt       time.Time   `json:"occurred_at"`
}
