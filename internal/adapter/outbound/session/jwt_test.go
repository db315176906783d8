package session

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pixelgate/server/internal/port/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signHS256(t *testing.T, secret string, c jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "user_2abc",
		"sid": "sess_1",
		"iss": "https://clerk.example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func TestJWTVerifier_HS256(t *testing.T) {
	v, err := NewJWTVerifier(Config{Secret: "test-secret", Issuer: "https://clerk.example.com"})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		c, err := v.Verify(signHS256(t, "test-secret", validClaims()))
		require.NoError(t, err)
		assert.Equal(t, "user_2abc", c.UserID)
		assert.Equal(t, "sess_1", c.SessionID)
		assert.False(t, c.ExpiresAt.IsZero())
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(signHS256(t, "other-secret", validClaims()))
		assert.ErrorIs(t, err, outbound.ErrInvalidSession)
	})

	t.Run("expired", func(t *testing.T) {
		c := validClaims()
		c["exp"] = time.Now().Add(-time.Minute).Unix()
		_, err := v.Verify(signHS256(t, "test-secret", c))
		assert.ErrorIs(t, err, outbound.ErrInvalidSession)
	})

	t.Run("missing expiry", func(t *testing.T) {
		c := validClaims()
		delete(c, "exp")
		_, err := v.Verify(signHS256(t, "test-secret", c))
		assert.ErrorIs(t, err, outbound.ErrInvalidSession)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := validClaims()
		c["iss"] = "https://evil.example.com"
		_, err := v.Verify(signHS256(t, "test-secret", c))
		assert.ErrorIs(t, err, outbound.ErrInvalidSession)
	})

	t.Run("missing subject", func(t *testing.T) {
		c := validClaims()
		delete(c, "sub")
		_, err := v.Verify(signHS256(t, "test-secret", c))
		assert.ErrorIs(t, err, outbound.ErrInvalidSession)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-jwt")
		assert.ErrorIs(t, err, outbound.ErrInvalidSession)
	})
}

func TestJWTVerifier_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v, err := NewJWTVerifier(Config{PublicKeyPEM: string(pemKey)})
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims()).SignedString(key)
	require.NoError(t, err)

	c, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", c.UserID)

	t.Run("rejects HS256 when only a public key is configured", func(t *testing.T) {
		_, err := v.Verify(signHS256(t, string(pemKey), validClaims()))
		assert.ErrorIs(t, err, outbound.ErrInvalidSession)
	})
}

func TestNewJWTVerifier_Errors(t *testing.T) {
	_, err := NewJWTVerifier(Config{})
	assert.Error(t, err)

	_, err = NewJWTVerifier(Config{PublicKeyPEM: "not pem"})
	assert.Error(t, err)
}
