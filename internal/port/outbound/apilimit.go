package outbound

import (
	"context"

	"github.com/pixelgate/server/internal/model"
)

// APILimitStorePort defines usage counter persistence.
// Every method is atomic with respect to concurrent calls for the same user.
type APILimitStorePort interface {
	// Get returns the counter, 0 when the user has no record.
	Get(ctx context.Context, userID string) (int, error)

	// Increment adds one, creating the record at 1 when absent.
	Increment(ctx context.Context, userID string) (int, error)

	// IncrementIfBelow adds one only when the counter is below limit.
	// It returns the resulting counter and whether the increment happened.
	IncrementIfBelow(ctx context.Context, userID string, limit int) (int, bool, error)

	// Decrement subtracts one, never going below zero.
	Decrement(ctx context.Context, userID string) (int, error)

	// Reset sets the counter back to zero.
	Reset(ctx context.Context, userID string) error
}

// SubscriptionStorePort defines paid subscription persistence.
type SubscriptionStorePort interface {
	// GetByUserID returns nil, nil when the user never subscribed.
	GetByUserID(ctx context.Context, userID string) (*model.UserSubscription, error)

	// GetByStripeSubscriptionID returns nil, nil when unknown.
	GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.UserSubscription, error)

	// Upsert creates or replaces the subscription of sub.UserID.
	Upsert(ctx context.Context, sub *model.UserSubscription) error
}
