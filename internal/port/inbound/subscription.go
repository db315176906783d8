package inbound

import (
	"context"

	"github.com/pixelgate/server/internal/port/outbound"
)

// SubscriptionDomain applies verified billing events.
type SubscriptionDomain interface {
	HandleEvent(ctx context.Context, event *outbound.BillingEvent) error
	IsPro(ctx context.Context, userID string) (bool, error)
}
