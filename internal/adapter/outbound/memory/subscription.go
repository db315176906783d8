package memory

import (
	"context"
	"sync"

	"github.com/pixelgate/server/internal/model"
	"github.com/pixelgate/server/internal/port/outbound"
)

// SubscriptionStore implements outbound.SubscriptionStorePort in memory.
type SubscriptionStore struct {
	mu     sync.RWMutex
	byUser map[string]*model.UserSubscription
}

// NewSubscriptionStore creates an empty in-memory subscription store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{byUser: make(map[string]*model.UserSubscription)}
}

func (s *SubscriptionStore) GetByUserID(ctx context.Context, userID string) (*model.UserSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.byUser[userID]
	if !ok {
		return nil, nil
	}
	subCopy := *sub
	return &subCopy, nil
}

func (s *SubscriptionStore) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.UserSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.byUser {
		if sub.StripeSubscriptionID == subscriptionID {
			subCopy := *sub
			return &subCopy, nil
		}
	}
	return nil, nil
}

func (s *SubscriptionStore) Upsert(ctx context.Context, sub *model.UserSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subCopy := *sub
	if existing, ok := s.byUser[sub.UserID]; ok {
		subCopy.ID = existing.ID
		subCopy.CreatedAt = existing.CreatedAt
	}
	s.byUser[sub.UserID] = &subCopy
	return nil
}

var _ outbound.SubscriptionStorePort = (*SubscriptionStore)(nil)
