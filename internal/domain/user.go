package domain

import "time"

// Credential is the salted, one-way hashed form of a password.
type Credential string

// User is the domain model for a registered account.
type User struct {
	ID         string
	Email      string
	Credential Credential
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
