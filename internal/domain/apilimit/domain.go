// Package apilimit gates generation behind a per-user free trial counter.
package apilimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pixelgate/server/internal/port/outbound"
	"github.com/pixelgate/server/internal/utils/metrics"
	"go.uber.org/zap"
)

// DefaultFreeLimit is the number of free generations per user.
const DefaultFreeLimit = 5

// Recorder receives access gate decisions.
type Recorder interface {
	RecordQuotaDecision(decision string)
}

// Status is a user's view of their free trial.
type Status struct {
	Count     int  `json:"count"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	Pro       bool `json:"pro"`
}

// Domain implements the access gate.
type Domain struct {
	store         outbound.APILimitStorePort
	subscriptions outbound.SubscriptionStorePort
	limit         int
	proBypass     bool
	recorder      Recorder
	logger        *zap.Logger
	now           func() time.Time
}

// Option configures a Domain.
type Option func(*Domain)

// WithProBypass lets users with an active subscription generate without
// touching the counter. Off by default.
func WithProBypass(enabled bool) Option {
	return func(d *Domain) {
		d.proBypass = enabled
	}
}

// NewAPILimitDomain creates a new access gate.
// subscriptions and recorder may be nil.
func NewAPILimitDomain(
	store outbound.APILimitStorePort,
	subscriptions outbound.SubscriptionStorePort,
	limit int,
	recorder Recorder,
	logger *zap.Logger,
	opts ...Option,
) *Domain {
	if limit <= 0 {
		limit = DefaultFreeLimit
	}
	d := &Domain{
		store:         store,
		subscriptions: subscriptions,
		limit:         limit,
		recorder:      recorder,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Limit returns the free trial threshold.
func (d *Domain) Limit() int {
	return d.limit
}

// CheckLimit reports whether the counter of userID is below the threshold.
// With WithProBypass, an active subscription also passes. It does not mutate state.
func (d *Domain) CheckLimit(ctx context.Context, userID string) (bool, error) {
	if err := validateUserID(userID); err != nil {
		return false, err
	}

	pro, err := d.bypasses(ctx, userID)
	if err != nil {
		return false, err
	}
	if pro {
		return true, nil
	}

	count, err := d.store.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get api limit: %w", err)
	}
	return count < d.limit, nil
}

// IncreaseLimit adds one to the counter, creating it at 1 when absent.
func (d *Domain) IncreaseLimit(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if _, err := d.store.Increment(ctx, userID); err != nil {
		return fmt.Errorf("increase api limit: %w", err)
	}
	return nil
}

// GetCount returns the counter, 0 when the user has no record.
func (d *Domain) GetCount(ctx context.Context, userID string) (int, error) {
	if err := validateUserID(userID); err != nil {
		return 0, err
	}
	count, err := d.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get api limit: %w", err)
	}
	return count, nil
}

// Status returns the counter together with the threshold and subscription state.
func (d *Domain) Status(ctx context.Context, userID string) (*Status, error) {
	count, err := d.GetCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	pro, err := d.isPro(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining := d.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &Status{
		Count:     count,
		Limit:     d.limit,
		Remaining: remaining,
		Pro:       pro,
	}, nil
}

// Reserve takes one unit of the free trial in a single atomic step.
// It returns ErrLimitReached, leaving the counter untouched, when the
// threshold is already reached. With WithProBypass, subscribed users get a
// reservation that does not touch the counter.
func (d *Domain) Reserve(ctx context.Context, userID string) (*Reservation, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	pro, err := d.bypasses(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pro {
		d.record(metrics.QuotaBypassed)
		return &Reservation{userID: userID}, nil
	}

	count, ok, err := d.store.IncrementIfBelow(ctx, userID, d.limit)
	if err != nil {
		return nil, fmt.Errorf("reserve api limit: %w", err)
	}
	if !ok {
		d.record(metrics.QuotaDenied)
		d.logger.Debug("free trial exhausted",
			zap.String("user_id", userID),
			zap.Int("count", count),
			zap.Int("limit", d.limit),
		)
		return nil, ErrLimitReached
	}

	d.record(metrics.QuotaGranted)
	return &Reservation{
		userID: userID,
		domain: d,
	}, nil
}

// Reset sets the counter back to zero.
func (d *Domain) Reset(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if err := d.store.Reset(ctx, userID); err != nil {
		return fmt.Errorf("reset api limit: %w", err)
	}
	return nil
}

func (d *Domain) bypasses(ctx context.Context, userID string) (bool, error) {
	if !d.proBypass {
		return false, nil
	}
	return d.isPro(ctx, userID)
}

func (d *Domain) isPro(ctx context.Context, userID string) (bool, error) {
	if d.subscriptions == nil {
		return false, nil
	}
	sub, err := d.subscriptions.GetByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get subscription: %w", err)
	}
	return sub.IsActive(d.now()), nil
}

func (d *Domain) record(decision string) {
	if d.recorder != nil {
		d.recorder.RecordQuotaDecision(decision)
	}
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUserID
	}
	return nil
}

// Reservation is one unit of free trial taken by Reserve.
type Reservation struct {
	userID string
	domain *Domain // nil for subscribed users

	once sync.Once
	err  error
}

// Counted reports whether the reservation consumed a unit of the counter.
func (r *Reservation) Counted() bool {
	return r.domain != nil
}

// Release gives the unit back. Calling it more than once has no further effect.
func (r *Reservation) Release(ctx context.Context) error {
	if r == nil || r.domain == nil {
		return nil
	}
	r.once.Do(func() {
		if _, err := r.domain.store.Decrement(ctx, r.userID); err != nil {
			r.err = fmt.Errorf("release api limit: %w", err)
			return
		}
		r.domain.record(metrics.QuotaReleased)
	})
	return r.err
}
