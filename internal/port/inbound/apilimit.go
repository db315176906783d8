package inbound

import (
	"context"

	"github.com/pixelgate/server/internal/domain/apilimit"
)

// APILimitDomain is the per-user free trial access gate.
type APILimitDomain interface {
	CheckLimit(ctx context.Context, userID string) (bool, error)
	IncreaseLimit(ctx context.Context, userID string) error
	GetCount(ctx context.Context, userID string) (int, error)
	Status(ctx context.Context, userID string) (*apilimit.Status, error)

	Reserve(ctx context.Context, userID string) (*apilimit.Reservation, error)
	Reset(ctx context.Context, userID string) error
}
