package apilimithttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelgate/server/internal/port/inbound"
	"github.com/pixelgate/server/internal/shared/response"
	"github.com/pixelgate/server/internal/utils/middleware"
)

// Handler exposes the caller's free trial status.
type Handler struct {
	domain inbound.APILimitDomain
}

// NewHandler creates a new API limit handler.
func NewHandler(domain inbound.APILimitDomain) *Handler {
	return &Handler{domain: domain}
}

// RegisterRoutes registers API limit routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/api-limit", h.GetStatus)
}

// GetStatus handles GET /api/api-limit.
func (h *Handler) GetStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.AbortUnauthorized(c)
		return
	}

	status, err := h.domain.Status(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
