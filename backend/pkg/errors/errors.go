package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeAuth represents credential verification failures
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeValidation represents malformed or incomplete request input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents a missing person or relationship
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeStorage represents graph database errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeRateLimit represents a rejected call over the caller's quota
	ErrorTypeRateLimit ErrorType = "rate_limit"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Category returns the error's type. Promoted through embedding, so every
// typed error in this package exposes it.
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// UserMessage returns the human-readable message without the category prefix
func (e *BaseError) UserMessage() string {
	return e.Message
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Auth Errors

// ErrMissingCredential is returned when no credential was presented at all
var ErrMissingCredential = NewBaseError(ErrorTypeAuth, "no credential presented", nil)

// ErrTokenExpired is returned when a presented token has expired
var ErrTokenExpired = NewBaseError(ErrorTypeAuth, "token has expired", nil)

// ErrInvalidToken is returned when a presented token fails verification
type ErrInvalidToken struct {
	*BaseError
}

func NewInvalidToken(reason string, err error) *ErrInvalidToken {
	return &ErrInvalidToken{
		BaseError: NewBaseError(ErrorTypeAuth, fmt.Sprintf("invalid token: %s", reason), err),
	}
}

// Validation Errors

// ErrMissingIdentityKey is returned when token claims carry neither a phone
// number nor an email, leaving nothing to resolve an identity on
var ErrMissingIdentityKey = NewBaseError(ErrorTypeValidation, "token must contain a phone number or email", nil)

// ErrInvalidRequest is returned for malformed request bodies or parameters
type ErrInvalidRequest struct {
	*BaseError
	Field string
}

func NewInvalidRequest(field, reason string) *ErrInvalidRequest {
	return &ErrInvalidRequest{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid request: %s - %s", field, reason), nil),
		Field:     field,
	}
}

// NotFound Errors

// ErrPersonNotFound is returned when no person exists for a phone number
type ErrPersonNotFound struct {
	*BaseError
	Phone string
}

func NewPersonNotFound(phone string) *ErrPersonNotFound {
	return &ErrPersonNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("person not found: %s", phone), nil),
		Phone:     phone,
	}
}

// ErrRelationshipNotFound is returned when a remove targets a KNOWS edge
// that does not exist. Absence of a connection path is NOT this error; that
// is a successful empty search result.
type ErrRelationshipNotFound struct {
	*BaseError
	OwnerPhone   string
	ContactPhone string
}

func NewRelationshipNotFound(ownerPhone, contactPhone string) *ErrRelationshipNotFound {
	return &ErrRelationshipNotFound{
		BaseError:    NewBaseError(ErrorTypeNotFound, "contact relationship not found", nil),
		OwnerPhone:   ownerPhone,
		ContactPhone: contactPhone,
	}
}

// Storage Errors

// ErrStorageUnavailable is returned when the graph engine cannot be reached
type ErrStorageUnavailable struct {
	*BaseError
}

func NewStorageUnavailable(err error) *ErrStorageUnavailable {
	return &ErrStorageUnavailable{
		BaseError: NewBaseError(ErrorTypeStorage, "graph storage unavailable", err),
	}
}

// ErrQueryFailed is returned when a graph query fails
type ErrQueryFailed struct {
	*BaseError
	Operation string
}

func NewQueryFailed(operation string, err error) *ErrQueryFailed {
	return &ErrQueryFailed{
		BaseError: NewBaseError(ErrorTypeStorage, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// RateLimit Errors

// ErrRateLimited is returned when a caller exceeds their per-minute quota
type ErrRateLimited struct {
	*BaseError
	Scope string
}

func NewRateLimited(scope string) *ErrRateLimited {
	return &ErrRateLimited{
		BaseError: NewBaseError(ErrorTypeRateLimit, fmt.Sprintf("rate limit exceeded for %s", scope), nil),
		Scope:     scope,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	t, ok := typeOf(err)
	return ok && t == errType
}

// typeOf extracts the ErrorType of an error, walking wrapped errors
func typeOf(err error) (ErrorType, bool) {
	if categorized, ok := err.(interface{ Category() ErrorType }); ok {
		return categorized.Category(), true
	}
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		if inner := wrapped.Unwrap(); inner != nil {
			return typeOf(inner)
		}
	}
	return "", false
}

// HTTPStatus maps an error to the status code the transport should return.
// Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	if err == ErrMissingCredential {
		return http.StatusForbidden
	}
	errType, ok := typeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch errType {
	case ErrorTypeAuth:
		return http.StatusUnauthorized
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeStorage:
		return http.StatusServiceUnavailable
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the human-readable message for an error response body
func UserMessage(err error) string {
	if described, ok := err.(interface{ UserMessage() string }); ok {
		return described.UserMessage()
	}
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		if inner := wrapped.Unwrap(); inner != nil {
			return UserMessage(inner)
		}
	}
	return err.Error()
}
