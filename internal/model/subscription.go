package model

import (
	"time"

	"github.com/google/uuid"
)

// UserSubscription links a user to a paid Stripe subscription.
type UserSubscription struct {
	ID                   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID               string    `json:"user_id" gorm:"not null;uniqueIndex"`
	StripeCustomerID     string    `json:"stripe_customer_id" gorm:"uniqueIndex"`
	StripeSubscriptionID string    `json:"stripe_subscription_id" gorm:"uniqueIndex"`
	StripePriceID        string    `json:"stripe_price_id"`
	CurrentPeriodEnd     time.Time `json:"current_period_end"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

// SubscriptionGracePeriod keeps a subscription valid while a renewal invoice settles.
const SubscriptionGracePeriod = 24 * time.Hour

// IsActive reports whether the paid period, plus the grace period, has not ended at now.
func (s *UserSubscription) IsActive(now time.Time) bool {
	return s != nil && s.StripePriceID != "" && s.CurrentPeriodEnd.Add(SubscriptionGracePeriod).After(now)
}
