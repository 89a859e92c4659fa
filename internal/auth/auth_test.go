package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/playlister/internal/shared"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(shared.AuthConfig{JWTSecret: "0123456789abcdef0123", TokenTTL: time.Hour})
	require.NoError(t, err)
	return issuer
}

func TestNewIssuer(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := NewIssuer(shared.AuthConfig{JWTSecret: "short"})
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)
	})

	t.Run("defaults ttl", func(t *testing.T) {
		issuer, err := NewIssuer(shared.AuthConfig{JWTSecret: "0123456789abcdef"})
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, issuer.TTL())
	})
}

func TestIssuer_SignVerify(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.Sign("user-1", "a@example.com")
	require.NoError(t, err)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "user-1", Email: "a@example.com"}, id)
}

func TestIssuer_VerifyFailures(t *testing.T) {
	issuer := newTestIssuer(t)

	t.Run("expired", func(t *testing.T) {
		past := *issuer
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.Sign("user-1", "a@example.com")
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		assert.ErrorIs(t, err, shared.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewIssuer(shared.AuthConfig{JWTSecret: "another-secret-of-length"})
		require.NoError(t, err)
		token, err := other.Sign("user-1", "a@example.com")
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := issuer.Verify("not-a-token")
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "playlister",
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := issuer.Sign("", "a@example.com")
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, ok := BearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()

	_, ok := FromContext(ctx)
	assert.False(t, ok)
	assert.Empty(t, UserID(ctx))

	ctx = WithIdentity(ctx, Identity{UserID: "u1", Email: "a@example.com"})
	id, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "u1", UserID(ctx))

	_, ok = FromContext(WithIdentity(context.Background(), Identity{}))
	assert.False(t, ok)
}
