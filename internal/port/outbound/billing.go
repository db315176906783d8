package outbound

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidWebhook = errors.New("invalid webhook")

// Billing event types handled by the subscription webhook.
const (
	BillingEventCheckoutCompleted = "checkout.session.completed"
	BillingEventInvoicePaid       = "invoice.payment_succeeded"
)

// BillingEvent is a verified billing webhook event.
type BillingEvent struct {
	ID             string
	Type           string
	UserID         string
	CustomerID     string
	SubscriptionID string
}

// BillingSubscription is the provider's view of a subscription.
type BillingSubscription struct {
	ID               string
	CustomerID       string
	PriceID          string
	CurrentPeriodEnd time.Time
}

// BillingProviderPort is the payment provider behind the subscription webhook.
type BillingProviderPort interface {
	// ConstructEvent verifies the signature and decodes the event.
	ConstructEvent(payload []byte, signature string) (*BillingEvent, error)

	// GetSubscription fetches a subscription by ID.
	GetSubscription(ctx context.Context, subscriptionID string) (*BillingSubscription, error)
}
