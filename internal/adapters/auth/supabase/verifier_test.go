package supabase

import (
	"context"
	"testing"
	"time"

	"wcu-registry/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerify_AdminFromAppMetadata(t *testing.T) {
	v := NewVerifier(Config{JWTSecret: testSecret, Audience: "authenticated"})
	token := sign(t, testSecret, jwt.MapClaims{
		"sub":          "user-1",
		"email":        "Admin@WCU.org",
		"aud":          "authenticated",
		"role":         "authenticated",
		"app_metadata": map[string]any{"role": "admin"},
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	c, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, "admin@wcu.org", c.Email)
	assert.Equal(t, auth.RoleAdmin, c.Role)
}

func TestVerify_AuthenticatedIsNotAdmin(t *testing.T) {
	v := NewVerifier(Config{JWTSecret: testSecret})
	token := sign(t, testSecret, jwt.MapClaims{
		"sub":  "user-2",
		"role": "authenticated",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	c, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, c.IsAdmin())
}

func TestVerify_Rejects(t *testing.T) {
	v := NewVerifier(Config{JWTSecret: testSecret})

	cases := map[string]string{
		"wrong secret": sign(t, "another-secret-another-secret-another", jwt.MapClaims{
			"sub": "u", "exp": time.Now().Add(time.Hour).Unix(),
		}),
		"expired": sign(t, testSecret, jwt.MapClaims{
			"sub": "u", "exp": time.Now().Add(-time.Hour).Unix(),
		}),
		"no exp": sign(t, testSecret, jwt.MapClaims{"sub": "u"}),
		"no sub": sign(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
		"empty":  "",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tok)
			assert.Error(t, err)
		})
	}
}

func TestVerify_NotConfigured(t *testing.T) {
	_, err := NewVerifier(Config{}).Verify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
