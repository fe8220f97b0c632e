package domain

import "errors"

var (
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned for both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrCorruptCredential means a stored credential could not be parsed.
	ErrCorruptCredential = errors.New("stored credential is corrupt")
	// ErrConfiguration covers missing or unusable signing configuration.
	ErrConfiguration = errors.New("auth configuration error")
	// ErrInvalidSignature covers bad signatures and structurally broken tokens.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpired means the token expiry is at or before the current time.
	ErrExpired = errors.New("token expired")
	// ErrMalformedPayload means the token payload lacks subject or expiry.
	ErrMalformedPayload = errors.New("malformed token payload")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrValidation covers missing or malformed request input.
	ErrValidation = errors.New("validation failed")
)
