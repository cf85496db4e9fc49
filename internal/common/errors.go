package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Engine error taxonomy. Callers match with errors.Is.
var (
	ErrNotInitialized  = errors.New("business profile not initialized")
	ErrStorageFault    = errors.New("storage fault")
	ErrUploadFailed    = errors.New("quote upload failed")
	ErrNetworkDegraded = errors.New("network degraded")
	ErrValidation      = errors.New("validation failed")
	ErrImmutableID     = errors.New("business id is immutable")
	ErrInvalidInput    = errors.New("invalid input")
)

// Error codes carried by AppError.
const (
	CodeNotInitialized = "NOT_INITIALIZED"
	CodeStorageFault   = "STORAGE_FAULT"
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeValidation     = "VALIDATION_ERROR"
	CodeConfig         = "CONFIG_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NotInitializedError(op string) error {
	return NewAppError(CodeNotInitialized, op+" requires an active business profile", ErrNotInitialized)
}

// StorageFaultError wraps a persistence failure so that it matches both
// ErrStorageFault and the underlying cause.
func StorageFaultError(op string, cause error) error {
	return NewAppError(CodeStorageFault, op, errors.Join(ErrStorageFault, cause))
}

func UploadFailedError(cause error) error {
	return NewAppError(CodeUploadFailed, "upload quote", errors.Join(ErrUploadFailed, cause))
}

func ValidationFailedError(message string) error {
	return NewAppError(CodeValidation, message, ErrValidation)
}
