package api

import (
	"errors"
	"fmt"

	"github.com/vietddude/paydash/internal/core/domain"
)

// User-facing messages per classification.
const (
	msgUnauthorized = "Your session has expired. Please log in again."
	msgForbidden    = "You do not have permission to perform this action."
	msgNotFound     = "The requested resource was not found."
	msgValidation   = "Validation failed."
	msgRateLimited  = "Too many requests. Please try again later."
	msgServer       = "Server error. Please try again later."
	msgNetwork      = "Network error. Please check your connection."
	msgSetup        = "The request could not be sent."
	msgUnknown      = "An unexpected error occurred."
)

// Error is the classified outcome of a failed logical request. It is built
// once per failure and never modified afterwards.
type Error struct {
	Class            domain.StatusClass
	Message          string
	StatusCode       int
	RequestID        string
	Response         *Response
	ValidationErrors map[string][]string
	Err              error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Class, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a classified error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsClass reports whether err is a classified error of the given class.
func IsClass(err error, class domain.StatusClass) bool {
	e, ok := AsError(err)
	return ok && e.Class == class
}

// UserMessage returns the message to show for err.
func UserMessage(err error) string {
	if e, ok := AsError(err); ok {
		return e.Message
	}
	return msgUnknown
}
