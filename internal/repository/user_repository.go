package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/auth-service/internal/domain"
)

const uniqueViolation = "23505"

// UserRepository defines persistence access for users.
//
// FindByEmail returns domain.ErrUserNotFound on a miss. Create returns
// domain.ErrDuplicateEmail when the email is already taken; uniqueness is
// enforced atomically by the store, not by a prior lookup.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, email string, credential domain.Credential) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, email string, credential domain.Credential) (*domain.User, error) {
	const query = `
        INSERT INTO users (email, password)
        VALUES ($1, $2)
        RETURNING id, email, password, created_at, updated_at`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email, string(credential)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, password, created_at, updated_at
        FROM users WHERE email=$1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user       domain.User
		credential string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&credential,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Credential = domain.Credential(credential)
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
