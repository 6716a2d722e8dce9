package error

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes surfaced by the subscription workflow
const (
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeNoApproverFound   ErrorCode = "NO_APPROVER_FOUND"
	ErrCodeUnknownCurrency   ErrorCode = "UNKNOWN_CURRENCY"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeTransitionFailed  ErrorCode = "TRANSITION_FAILED"
	ErrCodeRepositoryTimeout ErrorCode = "REPOSITORY_TIMEOUT"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInternal          ErrorCode = "INTERNAL"
)

// Sentinels for errors.Is comparisons. Matching is done on Code only.
var (
	ErrUnauthorized      = &AppError{Code: ErrCodeUnauthorized, Message: "Actor is not authorized for this action"}
	ErrInvalidTransition = &AppError{Code: ErrCodeInvalidTransition, Message: "Action is not allowed from the current status"}
	ErrValidation        = &AppError{Code: ErrCodeValidation, Message: "Validation failed"}
	ErrNoApproverFound   = &AppError{Code: ErrCodeNoApproverFound, Message: "No department head registered"}
	ErrUnknownCurrency   = &AppError{Code: ErrCodeUnknownCurrency, Message: "Unknown currency"}
	ErrConflict          = &AppError{Code: ErrCodeConflict, Message: "Concurrent modification detected"}
	ErrTransitionFailed  = &AppError{Code: ErrCodeTransitionFailed, Message: "Transition failed after retries"}
	ErrRepositoryTimeout = &AppError{Code: ErrCodeRepositoryTimeout, Message: "Repository operation timed out"}
	ErrNotFound          = &AppError{Code: ErrCodeNotFound, Message: "Resource not found"}
	ErrInternal          = &AppError{Code: ErrCodeInternal, Message: "Internal error"}
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code, so callers can write
// errors.Is(err, ErrInvalidTransition) against any detailed instance.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller may retry the operation.
func (e *AppError) Retryable() bool {
	return e.Code == ErrCodeRepositoryTimeout
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Subject describes who attempted what on which subscription. It is rendered
// into error details so every surfaced error can be audited.
type Subject struct {
	SubscriptionID string
	Action         string
	ActorID        string
}

func (s Subject) String() string {
	return fmt.Sprintf("subscription=%s action=%s actor=%s", s.SubscriptionID, s.Action, s.ActorID)
}

func Unauthorized(s Subject, reason string) *AppError {
	return NewAppError(ErrCodeUnauthorized, ErrUnauthorized.Message, fmt.Sprintf("%s: %s", s, reason), nil)
}

func InvalidTransition(s Subject, from string) *AppError {
	return NewAppError(ErrCodeInvalidTransition, ErrInvalidTransition.Message, fmt.Sprintf("%s from=%s", s, from), nil)
}

func Validation(field, reason string) *AppError {
	return NewAppError(ErrCodeValidation, ErrValidation.Message, fmt.Sprintf("%s: %s", field, reason), nil)
}

func NoApproverFound(department string) *AppError {
	return NewAppError(ErrCodeNoApproverFound, ErrNoApproverFound.Message, fmt.Sprintf("department=%s", department), nil)
}

func UnknownCurrency(code string) *AppError {
	return NewAppError(ErrCodeUnknownCurrency, ErrUnknownCurrency.Message, fmt.Sprintf("currency=%s", code), nil)
}

func Conflict(details string) *AppError {
	return NewAppError(ErrCodeConflict, ErrConflict.Message, details, nil)
}

func TransitionFailed(s Subject, attempts int, cause error) *AppError {
	return NewAppError(ErrCodeTransitionFailed, ErrTransitionFailed.Message, fmt.Sprintf("%s attempts=%d", s, attempts), cause)
}

func RepositoryTimeout(operation string, cause error) *AppError {
	return NewAppError(ErrCodeRepositoryTimeout, ErrRepositoryTimeout.Message, fmt.Sprintf("operation=%s", operation), cause)
}

func NotFound(resource, id string) *AppError {
	return NewAppError(ErrCodeNotFound, ErrNotFound.Message, fmt.Sprintf("%s=%s", resource, id), nil)
}

func Internal(details string, cause error) *AppError {
	return NewAppError(ErrCodeInternal, ErrInternal.Message, details, cause)
}

// GetHTTPStatusCode maps an error to the HTTP status the API responds with
func GetHTTPStatusCode(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case ErrCodeUnauthorized:
		return http.StatusForbidden
	case ErrCodeInvalidTransition, ErrCodeConflict, ErrCodeTransitionFailed:
		return http.StatusConflict
	case ErrCodeValidation, ErrCodeNoApproverFound, ErrCodeUnknownCurrency:
		return http.StatusUnprocessableEntity
	case ErrCodeRepositoryTimeout:
		return http.StatusServiceUnavailable
	case ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
