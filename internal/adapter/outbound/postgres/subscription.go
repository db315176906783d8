package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pixelgate/server/internal/model"
	"github.com/pixelgate/server/internal/port/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionAdapter implements outbound.SubscriptionStorePort.
type subscriptionAdapter struct {
	db *gorm.DB
}

// NewSubscriptionAdapter creates a new subscription database adapter.
func NewSubscriptionAdapter(db *gorm.DB) outbound.SubscriptionStorePort {
	return &subscriptionAdapter{db: db}
}

func (a *subscriptionAdapter) GetByUserID(ctx context.Context, userID string) (*model.UserSubscription, error) {
	return a.first(ctx, "user_id = ?", userID)
}

func (a *subscriptionAdapter) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.UserSubscription, error) {
	return a.first(ctx, "stripe_subscription_id = ?", subscriptionID)
}

func (a *subscriptionAdapter) first(ctx context.Context, query string, arg string) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := a.db.WithContext(ctx).First(&sub, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

func (a *subscriptionAdapter) Upsert(ctx context.Context, sub *model.UserSubscription) error {
	now := time.Now()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	err := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"stripe_customer_id",
				"stripe_subscription_id",
				"stripe_price_id",
				"current_period_end",
				"updated_at",
			}),
		}).
		Create(sub).Error
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// Compile-time check
var _ outbound.SubscriptionStorePort = (*subscriptionAdapter)(nil)
