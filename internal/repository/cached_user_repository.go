package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
)

const userCachePrefix = "auth:user:"

type cachedUser struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Credential string    `json:"credential"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CachedUserRepository is a read-through Redis cache in front of another
// UserRepository. Cache failures are logged and fall through to the inner store.
type CachedUserRepository struct {
	inner  UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps inner. Misses are never cached.
func NewCachedUserRepository(inner UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedUserRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedUserRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *CachedUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	key := userCachePrefix + email

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedUser
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			return cached.toDomain(), nil
		}
		r.logger.Warn("discarding corrupt user cache entry", zap.String("email", email))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("user cache read failed", zap.Error(err))
	}

	user, err := r.inner.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	r.store(ctx, user)
	return user, nil
}

func (r *CachedUserRepository) Create(ctx context.Context, email string, credential domain.Credential) (*domain.User, error) {
	user, err := r.inner.Create(ctx, email, credential)
	if err != nil {
		return nil, err
	}
	if err := r.client.Del(ctx, userCachePrefix+email).Err(); err != nil {
		r.logger.Warn("user cache evict failed", zap.Error(err))
	}
	return user, nil
}

func (r *CachedUserRepository) store(ctx context.Context, user *domain.User) {
	data, err := json.Marshal(cachedUser{
		ID:         user.ID,
		Email:      user.Email,
		Credential: string(user.Credential),
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	})
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, userCachePrefix+user.Email, data, r.ttl).Err(); err != nil {
		r.logger.Warn("user cache write failed", zap.Error(err))
	}
}

func (c cachedUser) toDomain() *domain.User {
	return &domain.User{
		ID:         c.ID,
		Email:      c.Email,
		Credential: domain.Credential(c.Credential),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
