package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/pixelgate/server/internal/port/outbound"
	"github.com/redis/go-redis/v9"
)

const apiLimitKeyPrefix = "api_limit:"

// incrementIfBelowScript returns {count, incremented}.
var incrementIfBelowScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count >= tonumber(ARGV[1]) then
	return {count, 0}
end
return {redis.call('INCR', KEYS[1]), 1}
`)

var decrementScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count <= 0 then
	return 0
end
return redis.call('DECR', KEYS[1])
`)

// apiLimitStore implements outbound.APILimitStorePort.
// Counters never expire; they only go back to zero through Reset.
type apiLimitStore struct {
	client redis.UniversalClient
}

// NewAPILimitStore creates a Redis backed usage counter store.
func NewAPILimitStore(client redis.UniversalClient) outbound.APILimitStorePort {
	return &apiLimitStore{client: client}
}

func (s *apiLimitStore) key(userID string) string {
	return apiLimitKeyPrefix + userID
}

func (s *apiLimitStore) Get(ctx context.Context, userID string) (int, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get api limit: %w", err)
	}
	return val, nil
}

func (s *apiLimitStore) Increment(ctx context.Context, userID string) (int, error) {
	val, err := s.client.Incr(ctx, s.key(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment api limit: %w", err)
	}
	return int(val), nil
}

func (s *apiLimitStore) IncrementIfBelow(ctx context.Context, userID string, limit int) (int, bool, error) {
	res, err := incrementIfBelowScript.Run(ctx, s.client, []string{s.key(userID)}, limit).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("reserve api limit: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("reserve api limit: unexpected script result %v", res)
	}
	return int(res[0]), res[1] == 1, nil
}

func (s *apiLimitStore) Decrement(ctx context.Context, userID string) (int, error) {
	val, err := decrementScript.Run(ctx, s.client, []string{s.key(userID)}).Int()
	if err != nil {
		return 0, fmt.Errorf("release api limit: %w", err)
	}
	return val, nil
}

func (s *apiLimitStore) Reset(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("reset api limit: %w", err)
	}
	return nil
}

// Compile-time check
var _ outbound.APILimitStorePort = (*apiLimitStore)(nil)
