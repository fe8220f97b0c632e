package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/domain"
)

// MemoryUserRepository keeps users in process memory. It backs the service
// when no database is configured and is used throughout the tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]domain.User
	now     func() time.Time
}

// NewMemoryUserRepository returns an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byEmail: make(map[string]domain.User),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, email string, credential domain.Credential) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, domain.ErrDuplicateEmail
	}

	now := r.now().UTC()
	user := domain.User{
		ID:         uuid.NewString(),
		Email:      email,
		Credential: credential,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.byEmail[email] = user
	return &user, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

// Delete removes a user; it exists so callers can model account removal.
func (r *MemoryUserRepository) Delete(_ context.Context, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byEmail, email)
}
