// Package errors provides structured error types for the SocialWave services.
// All errors include a category, code, message, and retryable flag so that
// facades and the transport adapter can classify failures consistently.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by the kind of failure.
type ErrorCategory string

const (
	ErrCategoryNotFound   ErrorCategory = "NOT_FOUND"
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategorySnapshot   ErrorCategory = "SNAPSHOT"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryLifecycle  ErrorCategory = "LIFECYCLE"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// NotFound codes
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeContentNotFound    = "CONTENT_NOT_FOUND"
	CodeModelNotFound      = "MODEL_NOT_FOUND"
	CodePredictionNotFound = "PREDICTION_NOT_FOUND"
	CodeBrandNotFound      = "BRAND_PROFILE_NOT_FOUND"

	// Validation codes
	CodeInvalidConfig  = "INVALID_CONFIG"
	CodeInvalidRequest = "INVALID_REQUEST"

	// Snapshot codes
	CodeCorruptionDetected = "CORRUPTION_DETECTED"
	CodeEncodeFailed       = "ENCODE_FAILED"
	CodeUnknownVersion     = "UNKNOWN_VERSION"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"

	// Lifecycle codes
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeDuplicateName     = "DUPLICATE_PARTICIPANT"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// SocialWaveError is the structured error type used throughout the system.
type SocialWaveError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *SocialWaveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *SocialWaveError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *SocialWaveError) Is(target error) bool {
	var t *SocialWaveError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new SocialWaveError.
func New(category ErrorCategory, code, message string) *SocialWaveError {
	return &SocialWaveError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new SocialWaveError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *SocialWaveError {
	return &SocialWaveError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *SocialWaveError) WithDetails(details map[string]interface{}) *SocialWaveError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var se *SocialWaveError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsNotFound reports whether the error chain carries a NOT_FOUND category.
func IsNotFound(err error) bool {
	return GetCategory(err) == ErrCategoryNotFound
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a SocialWaveError.
func GetCategory(err error) ErrorCategory {
	var se *SocialWaveError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a SocialWaveError.
func GetCode(err error) string {
	var se *SocialWaveError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// isRetryable reports whether a failure is transient. Only sink I/O is.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewNotFoundError(code, format string, args ...interface{}) *SocialWaveError {
	return New(ErrCategoryNotFound, code, fmt.Sprintf(format, args...))
}

func NewValidationError(code, message string) *SocialWaveError {
	return New(ErrCategoryValidation, code, message)
}

func NewSnapshotError(code, message string, cause error) *SocialWaveError {
	return Wrap(ErrCategorySnapshot, code, message, cause)
}

func NewStorageError(code, message string, cause error) *SocialWaveError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewLifecycleError(code, message string) *SocialWaveError {
	return New(ErrCategoryLifecycle, code, message)
}

func NewInternalError(message string, cause error) *SocialWaveError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
