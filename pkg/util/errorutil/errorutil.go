package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Application error codes rendered in the error envelope.
const (
	CodeValidation           = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
	CodeDuplicateTag         = "DUPLICATE_TAG"
	CodeAlreadyInStatus      = "ALREADY_IN_STATUS"
	CodeNothingToUpdate      = "NOTHING_TO_UPDATE"
	CodeAccountDataNotFound  = "ACCOUNT_DATA_NOT_FOUND"
	CodeEmailExists          = "EMAIL_EXISTS"
	CodeProtectedStatus      = "PROTECTED_STATUS"
	CodePhotoLimit           = "PHOTO_LIMIT"
	CodeConfirmationMismatch = "CONFIRMATION_MISMATCH"
	CodeUnavailable          = "SERVICE_UNAVAILABLE"
	CodePartialFailure       = "PARTIAL_FAILURE"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewUnavailable reports a dependency that is not ready or reachable.
func NewUnavailable(message string, err error) error {
	return &DomainError{Code: CodeUnavailable, Message: message, HTTPStatus: http.StatusServiceUnavailable, Err: err}
}

func NewDuplicateTag() error {
	return NewDomainError(CodeDuplicateTag, "Asset tag already exists. Please use a unique tag.", http.StatusConflict, nil)
}

func NewAlreadyInStatus(status string) error {
	return NewDomainError(CodeAlreadyInStatus, "Ticket is already in this status", http.StatusConflict,
		map[string]any{"status": status})
}

func NewNothingToUpdate() error {
	return NewDomainError(CodeNothingToUpdate, "Please add a comment or choose a new status", http.StatusBadRequest, nil)
}

func NewAccountDataNotFound() error {
	return NewDomainError(CodeAccountDataNotFound, "Account data not found", http.StatusForbidden, nil)
}

func NewEmailExists(email string) error {
	return NewDomainError(CodeEmailExists, "An account with this email already exists", http.StatusConflict,
		map[string]any{"email": email})
}

func NewProtectedStatus(label string) error {
	return NewDomainError(CodeProtectedStatus, "System statuses cannot be removed or deactivated", http.StatusBadRequest,
		map[string]any{"status": label})
}

func NewPhotoLimit(max int) error {
	return NewDomainError(CodePhotoLimit, fmt.Sprintf("A ticket can hold at most %d photos", max), http.StatusBadRequest,
		map[string]any{"max": max})
}

func NewConfirmationMismatch() error {
	return NewDomainError(CodeConfirmationMismatch, "Confirmation text does not match the company code", http.StatusBadRequest, nil)
}

// NewPartialFailure reports a multi-step operation where some steps failed.
// Steps that succeeded are not rolled back.
func NewPartialFailure(message string, failed []string, err error) error {
	return &DomainError{
		Code:       CodePartialFailure,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"failed_steps": failed},
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts err to a DomainError. A nil err stays nil.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
