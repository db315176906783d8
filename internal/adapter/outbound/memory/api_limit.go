// Package memory provides in-process stores for single-instance deployments and tests.
// Data is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/pixelgate/server/internal/port/outbound"
)

// APILimitStore implements outbound.APILimitStorePort with a mutex-guarded map.
type APILimitStore struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewAPILimitStore creates an empty in-memory usage counter store.
func NewAPILimitStore() *APILimitStore {
	return &APILimitStore{counts: make(map[string]int)}
}

func (s *APILimitStore) Get(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[userID], nil
}

func (s *APILimitStore) Increment(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[userID]++
	return s.counts[userID], nil
}

func (s *APILimitStore) IncrementIfBelow(ctx context.Context, userID string, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.counts[userID]
	if count >= limit {
		return count, false, nil
	}
	s.counts[userID] = count + 1
	return count + 1, true, nil
}

func (s *APILimitStore) Decrement(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, ok := s.counts[userID]
	if !ok {
		return 0, nil
	}
	if count > 0 {
		count--
	}
	s.counts[userID] = count
	return count, nil
}

func (s *APILimitStore) Reset(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counts[userID]; ok {
		s.counts[userID] = 0
	}
	return nil
}

// Set seeds a counter.
func (s *APILimitStore) Set(userID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[userID] = count
}

var _ outbound.APILimitStorePort = (*APILimitStore)(nil)
