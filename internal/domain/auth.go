package domain

import "time"

// TokenKind separates the access and refresh token namespaces.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Valid reports whether k is a known token kind.
func (k TokenKind) Valid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}

// Token is a signed, time-bounded assertion about a subject.
type Token struct {
	Value     string
	Kind      TokenKind
	Subject   string
	ExpiresAt time.Time
}

// TokenPair is returned on successful login.
type TokenPair struct {
	Access  Token
	Refresh Token
}
