package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
)

// PasswordHasher hashes and verifies passwords off the request path.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (domain.Credential, error)
	Verify(ctx context.Context, plaintext string, credential domain.Credential) (bool, error)
}

// AuthService coordinates registration, login and token-based lookups.
type AuthService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens *auth.TokenService
	events events.Dispatcher
	logger *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Users      repository.UserRepository
	Hasher     PasswordHasher
	Tokens     *auth.TokenService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  deps.Users,
		hasher: deps.Hasher,
		tokens: deps.Tokens,
		events: deps.Dispatcher,
		logger: logger,
	}
}

// Register creates a new account. The returned user carries no credential.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	credential, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// Create re-checks uniqueness atomically for concurrent registrations.
	user, err := s.users.Create(ctx, email, credential)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserRegistered, user.Email, user.ID, nil))
	return sanitizeUser(user), nil
}

// Login verifies credentials and issues an access and a refresh token.
// Unknown email and wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.loginFailed(ctx, email, "unknown_email")
			return domain.TokenPair{}, domain.ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}

	ok, err := s.hasher.Verify(ctx, password, user.Credential)
	if err != nil {
		s.logger.Error("credential verification failed", zap.String("user_id", user.ID), zap.Error(err))
		return domain.TokenPair{}, err
	}
	if !ok {
		s.loginFailed(ctx, email, "wrong_password")
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(user.Email, domain.TokenKindAccess, nil)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.tokens.Issue(user.Email, domain.TokenKindRefresh, nil)
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserLoggedIn, user.Email, user.ID, nil))
	return domain.TokenPair{Access: access, Refresh: refresh}, nil
}

// Authenticate resolves an access token to its user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	return s.resolve(ctx, accessToken, domain.TokenKindAccess)
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token itself is neither rotated nor recorded.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.Token, error) {
	user, err := s.resolve(ctx, refreshToken, domain.TokenKindRefresh)
	if err != nil {
		return domain.Token{}, err
	}

	access, err := s.tokens.Issue(user.Email, domain.TokenKindAccess, nil)
	if err != nil {
		return domain.Token{}, err
	}

	s.publish(ctx, events.NewEvent(events.EventTokenRefreshed, user.Email, user.ID, nil))
	return access, nil
}

func (s *AuthService) resolve(ctx context.Context, token string, kind domain.TokenKind) (*domain.User, error) {
	subject, err := s.tokens.Validate(token, kind)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, subject)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) {
	s.publish(ctx, events.NewEvent(events.EventLoginFailed, email, "", events.LoginFailedPayload{Reason: reason}))
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}
	return email, nil
}

func sanitizeUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clean := *u
	clean.Credential = ""
	return &clean
}
