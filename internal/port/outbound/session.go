package outbound

import (
	"errors"
	"time"
)

var ErrInvalidSession = errors.New("invalid session")

// SessionClaims is the verified content of a session token.
type SessionClaims struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

// SessionVerifierPort verifies session tokens issued by the identity provider.
type SessionVerifierPort interface {
	Verify(token string) (*SessionClaims, error)
}
