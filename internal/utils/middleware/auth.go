package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// DefaultSessionCookie is the identity provider's session cookie.
	DefaultSessionCookie = "__session"
	// UserIDKey is the context key for user ID.
	UserIDKey = "user_id"
	// SessionIDKey is the context key for session ID.
	SessionIDKey = "session_id"
)

// extractToken returns the bearer token, falling back to the session cookie.
func extractToken(c *gin.Context, cookieName string) string {
	if token := extractBearerToken(c); token != "" {
		return token
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}

	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
	}

	return ""
}

// GetUserID returns the principal set by the route guard.
// Returns an empty string if not found.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
