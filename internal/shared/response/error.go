package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/pixelgate/server/internal/shared/errors"
)

// Text writes a plain-text response body.
func Text(c *gin.Context, status int, body string) {
	c.Data(status, "text/plain; charset=utf-8", []byte(body))
}

// Error writes err as a plain-text response using its mapped status and public message.
func Error(c *gin.Context, err error) {
	Text(c, apperrors.GetStatusCode(err), apperrors.PublicMessage(err))
}

// AbortUnauthorized stops the handler chain with a 401 plain-text response.
func AbortUnauthorized(c *gin.Context) {
	Text(c, http.StatusUnauthorized, "Unauthorized")
	c.Abort()
}

// RawJSON writes an already-encoded JSON payload unchanged.
func RawJSON(c *gin.Context, status int, payload []byte) {
	c.Data(status, "application/json; charset=utf-8", payload)
}
