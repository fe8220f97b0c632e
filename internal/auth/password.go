package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/domain"
)

// CredentialManager hashes and verifies passwords.
//
// Input is first reduced to the hex SHA-256 digest so bcrypt's 72-byte input
// limit never truncates a password. The zero value is not usable; construct
// with NewCredentialManager.
type CredentialManager struct {
	cost int
}

// NewCredentialManager builds a manager using the given bcrypt cost.
func NewCredentialManager(cost int) *CredentialManager {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialManager{cost: cost}
}

// Hash returns a freshly salted credential for plaintext.
func (m *CredentialManager) Hash(plaintext string) (domain.Credential, error) {
	hashed, err := bcrypt.GenerateFromPassword(preHash(plaintext), m.cost)
	if err != nil {
		return "", err
	}
	return domain.Credential(hashed), nil
}

// Verify reports whether plaintext matches credential. A mismatch is not an
// error; an unreadable credential returns domain.ErrCorruptCredential.
func (m *CredentialManager) Verify(plaintext string, credential domain.Credential) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(credential), preHash(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", domain.ErrCorruptCredential, err)
	}
}

func preHash(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	digest := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(digest, sum[:])
	return digest
}
