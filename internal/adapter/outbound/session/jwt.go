// Package session verifies identity provider session tokens.
package session

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pixelgate/server/internal/port/outbound"
)

// Config holds session verification settings.
// Exactly one of Secret (HS256) or PublicKeyPEM (RS256) is normally set;
// when both are set either algorithm is accepted.
type Config struct {
	Secret       string
	PublicKeyPEM string
	Issuer       string
}

type claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid,omitempty"`
}

// JWTVerifier implements outbound.SessionVerifierPort.
type JWTVerifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
	parser    *jwt.Parser
}

// NewJWTVerifier creates a verifier from cfg.
func NewJWTVerifier(cfg Config) (*JWTVerifier, error) {
	v := &JWTVerifier{}
	var methods []string

	if cfg.Secret != "" {
		v.secret = []byte(cfg.Secret)
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if cfg.PublicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse session public key: %w", err)
		}
		v.publicKey = key
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if len(methods) == 0 {
		return nil, errors.New("session verifier needs a secret or a public key")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	v.parser = jwt.NewParser(opts...)

	return v, nil
}

// Verify validates token and returns its claims.
func (v *JWTVerifier) Verify(token string) (*outbound.SessionClaims, error) {
	var c claims
	parsed, err := v.parser.ParseWithClaims(token, &c, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", outbound.ErrInvalidSession, err)
	}
	if !parsed.Valid || c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", outbound.ErrInvalidSession)
	}

	out := &outbound.SessionClaims{
		UserID:    c.Subject,
		SessionID: c.SessionID,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

func (v *JWTVerifier) keyFunc(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret != nil {
			return v.secret, nil
		}
	case *jwt.SigningMethodRSA:
		if v.publicKey != nil {
			return v.publicKey, nil
		}
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}

var _ outbound.SessionVerifierPort = (*JWTVerifier)(nil)
