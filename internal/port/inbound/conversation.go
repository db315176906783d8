package inbound

import (
	"context"
	"encoding/json"
)

// ConversationDomain runs one gated generation request.
type ConversationDomain interface {
	Generate(ctx context.Context, userID string, prompt json.RawMessage) (json.RawMessage, error)
}
