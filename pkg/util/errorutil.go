package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/domain"
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
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// sentinelMappings is checked in order; the first errors.Is match wins.
var sentinelMappings = []struct {
	target  error
	code    string
	message string
	status  int
}{
	{domain.ErrDuplicateEmail, "DUPLICATE_EMAIL", "Email already registered", http.StatusBadRequest},
	{domain.ErrInvalidCredentials, "INVALID_CREDENTIALS", "Incorrect email or password", http.StatusBadRequest},
	{domain.ErrExpired, "TOKEN_EXPIRED", "Token expired", http.StatusUnauthorized},
	{domain.ErrInvalidSignature, "INVALID_SIGNATURE", "Could not validate credentials", http.StatusForbidden},
	{domain.ErrMalformedPayload, "MALFORMED_PAYLOAD", "Could not validate credentials", http.StatusForbidden},
	{domain.ErrUserNotFound, "USER_NOT_FOUND", "User not found", http.StatusNotFound},
}

// ToDomainError converts generic errors to DomainError. Unknown errors,
// including corrupt credentials and configuration failures, become 500s.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	for _, m := range sentinelMappings {
		if errors.Is(err, m.target) {
			return &DomainError{Code: m.code, Message: m.message, HTTPStatus: m.status, Err: err}
		}
	}
	if errors.Is(err, domain.ErrValidation) {
		return &DomainError{Code: "VALIDATION_FAILED", Message: err.Error(), HTTPStatus: http.StatusBadRequest, Err: err}
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{Code: "HTTP_ERROR", Message: fiberErr.Message, HTTPStatus: fiberErr.Code}
	}
	de, _ := NewInternalError(err).(*DomainError)
	return de
}
