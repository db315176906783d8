// Package subscription keeps paid subscriptions in sync with billing events.
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/pixelgate/server/internal/model"
	"github.com/pixelgate/server/internal/port/outbound"
	"go.uber.org/zap"
)

// CounterResetter clears a user's free trial counter.
type CounterResetter interface {
	Reset(ctx context.Context, userID string) error
}

// Domain implements subscription business logic.
type Domain struct {
	store   outbound.SubscriptionStorePort
	billing outbound.BillingProviderPort
	counter CounterResetter
	logger  *zap.Logger
	now     func() time.Time
}

// NewSubscriptionDomain creates a new subscription domain service.
func NewSubscriptionDomain(
	store outbound.SubscriptionStorePort,
	billing outbound.BillingProviderPort,
	counter CounterResetter,
	logger *zap.Logger,
) *Domain {
	return &Domain{
		store:   store,
		billing: billing,
		counter: counter,
		logger:  logger,
		now:     time.Now,
	}
}

// HandleEvent applies a verified billing event. Unknown event types are ignored.
func (d *Domain) HandleEvent(ctx context.Context, event *outbound.BillingEvent) error {
	switch event.Type {
	case outbound.BillingEventCheckoutCompleted:
		return d.handleCheckoutCompleted(ctx, event)
	case outbound.BillingEventInvoicePaid:
		return d.handleInvoicePaid(ctx, event)
	default:
		d.logger.Debug("unhandled billing event",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
		)
		return nil
	}
}

// IsPro reports whether userID has an active subscription.
func (d *Domain) IsPro(ctx context.Context, userID string) (bool, error) {
	sub, err := d.store.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub.IsActive(d.now()), nil
}

func (d *Domain) handleCheckoutCompleted(ctx context.Context, event *outbound.BillingEvent) error {
	if event.UserID == "" {
		return ErrUserIDRequired
	}
	if event.SubscriptionID == "" {
		return ErrSubscriptionIDRequired
	}

	remote, err := d.billing.GetSubscription(ctx, event.SubscriptionID)
	if err != nil {
		return err
	}

	sub := &model.UserSubscription{
		UserID:               event.UserID,
		StripeCustomerID:     firstNonEmpty(remote.CustomerID, event.CustomerID),
		StripeSubscriptionID: remote.ID,
		StripePriceID:        remote.PriceID,
		CurrentPeriodEnd:     remote.CurrentPeriodEnd,
	}
	if err := d.store.Upsert(ctx, sub); err != nil {
		return err
	}

	if err := d.counter.Reset(ctx, event.UserID); err != nil {
		return fmt.Errorf("reset counter: %w", err)
	}

	d.logger.Info("subscription created",
		zap.String("event_id", event.ID),
		zap.String("user_id", event.UserID),
		zap.String("subscription_id", remote.ID),
		zap.Time("current_period_end", remote.CurrentPeriodEnd),
	)
	return nil
}

func (d *Domain) handleInvoicePaid(ctx context.Context, event *outbound.BillingEvent) error {
	if event.SubscriptionID == "" {
		d.logger.Debug("invoice without subscription", zap.String("event_id", event.ID))
		return nil
	}

	sub, err := d.store.GetByStripeSubscriptionID(ctx, event.SubscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		d.logger.Warn("invoice for unknown subscription",
			zap.String("event_id", event.ID),
			zap.String("subscription_id", event.SubscriptionID),
		)
		return nil
	}

	remote, err := d.billing.GetSubscription(ctx, event.SubscriptionID)
	if err != nil {
		return err
	}

	sub.StripePriceID = remote.PriceID
	sub.CurrentPeriodEnd = remote.CurrentPeriodEnd
	if err := d.store.Upsert(ctx, sub); err != nil {
		return err
	}

	d.logger.Info("subscription renewed",
		zap.String("event_id", event.ID),
		zap.String("user_id", sub.UserID),
		zap.Time("current_period_end", remote.CurrentPeriodEnd),
	)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
