package webhookhttp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelgate/server/internal/domain/subscription"
	"github.com/pixelgate/server/internal/port/inbound"
	"github.com/pixelgate/server/internal/port/outbound"
	"github.com/pixelgate/server/internal/shared/response"
	"go.uber.org/zap"
)

// StripeSignatureHeader carries the webhook signature.
const StripeSignatureHeader = "Stripe-Signature"

const maxPayloadBytes = 65536

// Handler receives billing provider webhooks.
type Handler struct {
	billing outbound.BillingProviderPort
	domain  inbound.SubscriptionDomain
	logger  *zap.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(billing outbound.BillingProviderPort, domain inbound.SubscriptionDomain, logger *zap.Logger) *Handler {
	return &Handler{
		billing: billing,
		domain:  domain,
		logger:  logger,
	}
}

// RegisterRoutes registers webhook routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhook", h.HandleStripeWebhook)
}

// HandleStripeWebhook handles POST /api/webhook.
func (h *Handler) HandleStripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes)
	payload, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		response.Text(c, http.StatusBadRequest, fmt.Sprintf("Webhook Error: %v", err))
		return
	}

	event, err := h.billing.ConstructEvent(payload, c.GetHeader(StripeSignatureHeader))
	if err != nil {
		h.logger.Warn("invalid webhook", zap.Error(err))
		response.Text(c, http.StatusBadRequest, fmt.Sprintf("Webhook Error: %v", err))
		return
	}

	if err := h.domain.HandleEvent(c.Request.Context(), event); err != nil {
		switch {
		case errors.Is(err, subscription.ErrUserIDRequired):
			response.Text(c, http.StatusBadRequest, "User id is required")
		case errors.Is(err, subscription.ErrSubscriptionIDRequired):
			response.Text(c, http.StatusBadRequest, "Subscription id is required")
		default:
			h.logger.Error("failed to process webhook event",
				zap.String("event_id", event.ID),
				zap.String("type", event.Type),
				zap.Error(err),
			)
			response.Text(c, http.StatusInternalServerError, "Internal Error")
		}
		return
	}

	c.Status(http.StatusOK)
}
