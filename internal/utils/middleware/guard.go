package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pixelgate/server/internal/port/outbound"
	"github.com/pixelgate/server/internal/shared/response"
	"github.com/pixelgate/server/internal/utils/requestctx"
)

// DefaultPublicRoutes are reachable without a session.
var DefaultPublicRoutes = []string{"/", "/api/webhook"}

const wildcardSuffix = "(.*)"

// GuardConfig holds route guard configuration.
type GuardConfig struct {
	PublicRoutes  []string
	SessionCookie string
}

// RouteGuard returns a middleware that requires a verified session on every
// guarded, non-public path. Requests without one get 401 "Unauthorized" and
// never reach a handler.
func RouteGuard(verifier outbound.SessionVerifierPort, cfg GuardConfig) gin.HandlerFunc {
	public := cfg.PublicRoutes
	if public == nil {
		public = DefaultPublicRoutes
	}
	cookie := cfg.SessionCookie
	if cookie == "" {
		cookie = DefaultSessionCookie
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !GuardApplies(path) {
			c.Next()
			return
		}

		authenticated := authenticate(c, verifier, cookie)
		if !authenticated && !IsPublicRoute(public, path) {
			response.AbortUnauthorized(c)
			return
		}

		c.Next()
	}
}

func authenticate(c *gin.Context, verifier outbound.SessionVerifierPort, cookie string) bool {
	token := extractToken(c, cookie)
	if token == "" {
		return false
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		return false
	}

	c.Set(UserIDKey, claims.UserID)
	if claims.SessionID != "" {
		c.Set(SessionIDKey, claims.SessionID)
	}
	c.Request = c.Request.WithContext(requestctx.WithPrincipal(c.Request.Context(), claims.UserID))
	return true
}

// GuardApplies reports whether the guard runs for path. Static assets (a last
// segment with a file extension) and /_next paths are skipped; /api and
// /trpc paths always run.
func GuardApplies(path string) bool {
	if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/trpc") {
		return true
	}

	rest := strings.TrimPrefix(path, "/")
	if strings.HasPrefix(rest, "_next") {
		return false
	}
	return !hasFileExtension(rest)
}

// hasFileExtension reports whether p ends in ".<word chars>" with at least one
// character before the dot.
func hasFileExtension(p string) bool {
	dot := strings.LastIndexByte(p, '.')
	if dot < 1 || dot == len(p)-1 {
		return false
	}
	for _, r := range p[dot+1:] {
		if !isWordChar(r) {
			return false
		}
	}
	return true
}

func isWordChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// IsPublicRoute reports whether path matches one of patterns. A pattern
// ending in "(.*)" matches any remainder; otherwise the match is exact,
// ignoring one trailing slash.
func IsPublicRoute(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matchRoute(pattern, path) {
			return true
		}
	}
	return false
}

func matchRoute(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, wildcardSuffix); ok {
		return strings.HasPrefix(path, prefix)
	}
	if path == pattern {
		return true
	}
	return len(path) > 1 && strings.TrimSuffix(path, "/") == pattern
}
