package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeInternal             = "INTERNAL_ERROR"
	ErrCodeBadRequest           = "BAD_REQUEST"
	ErrCodeEvaluatorUnavailable = "EVALUATOR_UNAVAILABLE"
	ErrCodeEvaluatorTimeout     = "EVALUATOR_TIMEOUT"
	ErrCodeMalformedGameRecord  = "MALFORMED_GAME_RECORD"
	ErrCodeQueueFull            = "QUEUE_FULL"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "EVALUATOR_TIMEOUT")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewEvaluatorUnavailableError reports an engine that failed to start or died mid-session.
func NewEvaluatorUnavailableError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeEvaluatorUnavailable,
		Message: "position evaluator unavailable",
		Status:  503,
		Err:     err,
	}
}

// NewEvaluatorTimeoutError reports a single search that exceeded its budget.
func NewEvaluatorTimeoutError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeEvaluatorTimeout,
		Message: "position evaluation timed out",
		Status:  504,
		Err:     err,
	}
}

// NewMalformedGameRecordError reports an input game that cannot be analyzed.
func NewMalformedGameRecordError(reason string) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedGameRecord,
		Message: fmt.Sprintf("malformed game record: %s", reason),
		Status:  422,
	}
}

// NewQueueFullError reports a background job that could not be queued.
func NewQueueFullError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeQueueFull,
		Message: "analysis queue is full, try again later",
		Status:  503,
		Err:     err,
	}
}
