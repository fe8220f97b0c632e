package auth

import (
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		Algorithm:       "HS256",
		AccessTokenTTL:  config.DefaultAccessTokenTTL,
		RefreshTokenTTL: config.DefaultRefreshTokenTTL,
	}
}

func ttl(d time.Duration) *time.Duration { return &d }

func TestTokenService_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := NewTokenService(testAuthConfig(), WithClock(clock))

	for _, kind := range []domain.TokenKind{domain.TokenKindAccess, domain.TokenKindRefresh} {
		tok, err := svc.Issue("alice@example.com", kind, nil)
		require.NoError(t, err)
		assert.Equal(t, kind, tok.Kind)
		assert.True(t, tok.ExpiresAt.After(clock.Now()))

		subject, err := svc.Validate(tok.Value, kind)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", subject)
	}
}

func TestTokenService_DefaultTTLs(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := NewTokenService(testAuthConfig(), WithClock(clock))

	access, err := svc.Issue("s", domain.TokenKindAccess, nil)
	require.NoError(t, err)
	assert.WithinDuration(t, clock.Now().Add(30*time.Minute), access.ExpiresAt, 0)

	refresh, err := svc.Issue("s", domain.TokenKindRefresh, nil)
	require.NoError(t, err)
	assert.WithinDuration(t, clock.Now().Add(7*24*time.Hour), refresh.ExpiresAt, 0)

	custom, err := svc.Issue("s", domain.TokenKindAccess, ttl(time.Hour))
	require.NoError(t, err)
	assert.WithinDuration(t, clock.Now().Add(time.Hour), custom.ExpiresAt, 0)
}

func TestTokenService_NamespaceIsolation(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testAuthConfig())

	access, err := svc.Issue("alice@example.com", domain.TokenKindAccess, nil)
	require.NoError(t, err)
	_, err = svc.Validate(access.Value, domain.TokenKindRefresh)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	refresh, err := svc.Issue("alice@example.com", domain.TokenKindRefresh, nil)
	require.NoError(t, err)
	_, err = svc.Validate(refresh.Value, domain.TokenKindAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestTokenService_KindClaimMismatch(t *testing.T) {
	t.Parallel()

	cfg := testAuthConfig()
	cfg.RefreshSecret = cfg.AccessSecret
	svc := NewTokenService(cfg)

	refresh, err := svc.Issue("alice@example.com", domain.TokenKindRefresh, nil)
	require.NoError(t, err)
	_, err = svc.Validate(refresh.Value, domain.TokenKindAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := NewTokenService(testAuthConfig(), WithClock(clock))

	tok, err := svc.Issue("alice@example.com", domain.TokenKindAccess, ttl(-time.Minute))
	require.NoError(t, err)
	_, err = svc.Validate(tok.Value, domain.TokenKindAccess)
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := NewTokenService(testAuthConfig(), WithClock(clock))

	tok, err := svc.Issue("alice@example.com", domain.TokenKindAccess, nil)
	require.NoError(t, err)

	clock.Advance(30*time.Minute - time.Second)
	_, err = svc.Validate(tok.Value, domain.TokenKindAccess)
	require.NoError(t, err)

	// expiry == now is already expired
	clock.Advance(time.Second)
	_, err = svc.Validate(tok.Value, domain.TokenKindAccess)
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestTokenService_SubSecondTTLStillValid(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := NewTokenService(testAuthConfig(), WithClock(clock))

	tok, err := svc.Issue("alice@example.com", domain.TokenKindAccess, ttl(500*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, tok.ExpiresAt.After(clock.Now()))

	subject, err := svc.Validate(tok.Value, domain.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subject)
}

func TestTokenService_LifetimeNotShortenedOffSecond(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	clock.Advance(700 * time.Millisecond)
	svc := NewTokenService(testAuthConfig(), WithClock(clock))

	tok, err := svc.Issue("alice@example.com", domain.TokenKindAccess, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, tok.ExpiresAt.Sub(clock.Now()), 30*time.Minute)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 1, 0, time.UTC), tok.ExpiresAt)

	clock.Advance(30 * time.Minute)
	_, err = svc.Validate(tok.Value, domain.TokenKindAccess)
	require.NoError(t, err)
}

func TestTokenService_KindClaimOptional(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := NewTokenService(testAuthConfig(), WithClock(clock))

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice@example.com",
		"exp": clock.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	subject, err := svc.Validate(raw, domain.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subject)
}

func TestTokenService_TamperedSignature(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testAuthConfig())
	tok, err := svc.Issue("alice@example.com", domain.TokenKindAccess, nil)
	require.NoError(t, err)

	parts := strings.Split(tok.Value, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[5] == 'A' {
		sig[5] = 'B'
	} else {
		sig[5] = 'A'
	}
	tampered := strings.Join([]string{parts[0], parts[1], string(sig)}, ".")

	_, err = svc.Validate(tampered, domain.TokenKindAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestTokenService_MalformedStructure(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testAuthConfig())
	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		_, err := svc.Validate(raw, domain.TokenKindAccess)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature, "token %q", raw)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testAuthConfig())
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "alice@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = svc.Validate(raw, domain.TokenKindAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"alice@example.com","exp":9999999999}`))
	_, err = svc.Validate(header+"."+payload+".", domain.TokenKindAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestTokenService_MalformedPayload(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := NewTokenService(testAuthConfig(), WithClock(clock))
	future := clock.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"missing subject", jwt.MapClaims{"exp": future}},
		{"empty subject", jwt.MapClaims{"sub": "", "exp": future}},
		{"non-string subject", jwt.MapClaims{"sub": 42, "exp": future}},
		{"missing expiry", jwt.MapClaims{"sub": "alice@example.com"}},
		{"string expiry", jwt.MapClaims{"sub": "alice@example.com", "exp": "tomorrow"}},
		{"non-string kind", jwt.MapClaims{"sub": "alice@example.com", "exp": future, "kind": 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString([]byte("access-secret"))
			require.NoError(t, err)

			_, err = svc.Validate(raw, domain.TokenKindAccess)
			assert.ErrorIs(t, err, domain.ErrMalformedPayload)
		})
	}
}

func TestTokenService_MissingSecretFailsAtIssue(t *testing.T) {
	t.Parallel()

	cfg := testAuthConfig()
	cfg.RefreshSecret = ""
	svc := NewTokenService(cfg)

	_, err := svc.Issue("alice@example.com", domain.TokenKindAccess, nil)
	require.NoError(t, err)

	_, err = svc.Issue("alice@example.com", domain.TokenKindRefresh, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestTokenService_BadAlgorithmOrKind(t *testing.T) {
	t.Parallel()

	cfg := testAuthConfig()
	cfg.Algorithm = "RS256"
	_, err := NewTokenService(cfg).Issue("s", domain.TokenKindAccess, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	cfg.Algorithm = "bogus"
	_, err = NewTokenService(cfg).Issue("s", domain.TokenKindAccess, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewTokenService(testAuthConfig()).Issue("s", domain.TokenKind("id"), nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestTokenService_ConcurrentUse(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testAuthConfig())
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := svc.Issue("alice@example.com", domain.TokenKindAccess, nil)
			if !assert.NoError(t, err) {
				return
			}
			subject, err := svc.Validate(tok.Value, domain.TokenKindAccess)
			assert.NoError(t, err)
			assert.Equal(t, "alice@example.com", subject)
		}()
	}
	wg.Wait()
}
