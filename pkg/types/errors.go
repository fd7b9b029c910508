package types

import "fmt"

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeTransport      ErrorType = "transport"
	ErrorTypeBadResponse    ErrorType = "bad_response"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeDuplicate      ErrorType = "duplicate"
	ErrorTypeParse          ErrorType = "parse"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeInternal       ErrorType = "internal"
)

// ServiceError is the structured error carried across package boundaries.
// It replaces the upstream backend's message-string convention with a
// tagged type the handlers can branch on.
type ServiceError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewTransportError creates an error for a failed upstream call
func NewTransportError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeTransport,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewBadResponseError creates an error for an unexpected response shape
func NewBadResponseError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeBadResponse,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewDuplicateError creates an error for a conflicting/duplicate entry
func NewDuplicateError(code, message string) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeDuplicate,
		Code:    code,
		Message: message,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(code, message string) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeAuthentication,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *ServiceError {
	return &ServiceError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error codes
const (
	ErrCodeUpstreamUnavailable  = "UPSTREAM_UNAVAILABLE"
	ErrCodeBadResponseShape     = "BAD_RESPONSE_SHAPE"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodePartialPayment       = "PARTIAL_PAYMENT"
	ErrCodeDuplicateEntry       = "DUPLICATE_ENTRY"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeSessionExpired       = "SESSION_EXPIRED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)
