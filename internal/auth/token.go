package auth

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
)

// Clock supplies the current time. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// Claims describes the JWT payload.
type Claims struct {
	Kind domain.TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

type keyRing struct {
	secret []byte
	ttl    time.Duration
}

// TokenService issues and validates signed, expiring tokens. Access and
// refresh tokens are signed with separate secrets and never cross-validate.
type TokenService struct {
	method jwt.SigningMethod
	keys   map[domain.TokenKind]keyRing
	clock  Clock
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source.
func WithClock(clock Clock) TokenOption {
	return func(s *TokenService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewTokenService builds a service from auth configuration. Missing secrets
// are reported at issuance; call config.AuthConfig.Validate at startup to
// fail earlier.
func NewTokenService(cfg config.AuthConfig, opts ...TokenOption) *TokenService {
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = config.DefaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = config.DefaultRefreshTokenTTL
	}
	alg := cfg.Algorithm
	if alg == "" {
		alg = config.DefaultAlgorithm
	}

	s := &TokenService{
		method: jwt.GetSigningMethod(alg),
		keys: map[domain.TokenKind]keyRing{
			domain.TokenKindAccess:  {secret: []byte(cfg.AccessSecret), ttl: accessTTL},
			domain.TokenKindRefresh: {secret: []byte(cfg.RefreshSecret), ttl: refreshTTL},
		},
		clock: SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token of the given kind for subject. A non-nil ttlOverride
// replaces the per-kind default; negative values yield an already expired token.
func (s *TokenService) Issue(subject string, kind domain.TokenKind, ttlOverride *time.Duration) (domain.Token, error) {
	key, err := s.key(kind)
	if err != nil {
		return domain.Token{}, err
	}

	ttl := key.ttl
	if ttlOverride != nil {
		ttl = *ttlOverride
	}

	now := s.clock.Now().UTC()
	expiresAt := ceilSecond(now.Add(ttl))
	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(key.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("%w: sign %s token: %v", domain.ErrConfiguration, kind, err)
	}
	return domain.Token{
		Value:     signed,
		Kind:      kind,
		Subject:   subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Validate checks signature, payload and expiry, returning the subject.
func (s *TokenService) Validate(tokenStr string, kind domain.TokenKind) (string, error) {
	key, err := s.key(kind)
	if err != nil {
		return "", err
	}

	// Claims validation is done below so each failure maps to its own error.
	parsed, err := jwt.Parse(tokenStr, func(*jwt.Token) (interface{}, error) {
		return key.secret, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrMalformedPayload
	}

	// Distinct secrets already separate the namespaces; the kind claim guards
	// against tokens minted by an older deployment that shared one.
	if raw, present := claims["kind"]; present {
		got, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("%w: kind", domain.ErrMalformedPayload)
		}
		if domain.TokenKind(got) != kind {
			return "", fmt.Errorf("%w: token kind %q", domain.ErrInvalidSignature, got)
		}
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: subject", domain.ErrMalformedPayload)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", fmt.Errorf("%w: expiry", domain.ErrMalformedPayload)
	}

	if !s.clock.Now().UTC().Before(exp.Time) {
		return "", domain.ErrExpired
	}
	return subject, nil
}

// ceilSecond rounds t up to the next whole second. JWT expiry has second
// precision, and truncating would cut a token's lifetime short.
func ceilSecond(t time.Time) time.Time {
	truncated := t.Truncate(time.Second)
	if truncated.Before(t) {
		return truncated.Add(time.Second)
	}
	return truncated
}

func (s *TokenService) key(kind domain.TokenKind) (keyRing, error) {
	if s.method == nil {
		return keyRing{}, fmt.Errorf("%w: unknown signing algorithm", domain.ErrConfiguration)
	}
	if _, ok := s.method.(*jwt.SigningMethodHMAC); !ok {
		return keyRing{}, fmt.Errorf("%w: signing algorithm %s is not HMAC", domain.ErrConfiguration, s.method.Alg())
	}
	key, ok := s.keys[kind]
	if !ok {
		return keyRing{}, fmt.Errorf("%w: unknown token kind %q", domain.ErrConfiguration, kind)
	}
	if len(key.secret) == 0 {
		return keyRing{}, fmt.Errorf("%w: %s token secret is not set", domain.ErrConfiguration, kind)
	}
	return key, nil
}
