package conversationhttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelgate/server/internal/domain/conversation"
	"github.com/pixelgate/server/internal/port/inbound"
	apperrors "github.com/pixelgate/server/internal/shared/errors"
	"github.com/pixelgate/server/internal/shared/response"
	"github.com/pixelgate/server/internal/utils/middleware"
	"go.uber.org/zap"
)

// maxBodyBytes bounds the request body read by Generate.
const maxBodyBytes = 1 << 20

// Body errors. Each ends the request as an internal error.
var (
	errEmptyBody   = errors.New("empty request body")
	errNullBody    = errors.New("request body is null")
	errInvalidJSON = errors.New("request body is not valid JSON")
)

// Handler handles generation HTTP requests.
type Handler struct {
	domain inbound.ConversationDomain
	logger *zap.Logger
}

// NewHandler creates a new generation handler.
func NewHandler(domain inbound.ConversationDomain, logger *zap.Logger) *Handler {
	return &Handler{domain: domain, logger: logger}
}

// RegisterRoutes registers generation routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/conversation", h.Generate)
}

// Generate handles POST /api/conversation.
func (h *Handler) Generate(c *gin.Context) {
	prompt, err := readMessages(c)
	if err != nil {
		h.logger.Error(conversation.LogTag+" read body",
			zap.String("user_id", middleware.GetUserID(c)),
			zap.Error(err),
		)
		err = apperrors.Internal(conversation.MsgInternal, err)
		_ = c.Error(err)
		response.Error(c, err)
		return
	}

	output, err := h.domain.Generate(c.Request.Context(), middleware.GetUserID(c), prompt)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, err)
		return
	}

	response.RawJSON(c, http.StatusOK, output)
}

// readMessages returns the raw "messages" value of a JSON object body.
// Valid JSON that is not an object carries no messages and yields nil.
// An unreadable, empty, malformed or null body is an error.
func readMessages(c *gin.Context) (json.RawMessage, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	if !json.Valid(body) {
		return nil, errInvalidJSON
	}
	if bytes.Equal(body, []byte("null")) {
		return nil, errNullBody
	}
	if body[0] != '{' {
		return nil, nil
	}

	var req map[string]json.RawMessage
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return req["messages"], nil
}
