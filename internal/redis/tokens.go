package redis

import (
	"context"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
)

// ResultTokenStore maps opaque result-lookup tokens to order numbers.
//
// Tokens use the standard nanoid alphabet at 21 characters (~128 bits of
// entropy, URL-safe). The TTL is sliding: every successful TryGet refreshes
// it, mirroring a sliding-expiration memory cache. Misses after expiry are
// silent, so callers keep a fallback identifier (the order number carried in
// the redirect URL). Being redis-backed, the mapping survives process
// restarts and is shared across backend instances.
type ResultTokenStore struct {
	client   *redis.Client
	ttl      time.Duration
	newToken func() string
}

// ResultTokenTTL is the sliding lifetime of a result-lookup token.
const ResultTokenTTL = 30 * time.Minute

const resultTokenPrefix = "resultado:token:"

// NewResultTokenStore creates a new ResultTokenStore.
func NewResultTokenStore(client *redis.Client) (*ResultTokenStore, error) {
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, err
	}
	return &ResultTokenStore{client: client, ttl: ResultTokenTTL, newToken: gen}, nil
}

// Save generates a fresh token for the order number and stores the mapping.
func (s *ResultTokenStore) Save(ctx context.Context, orderNumber string) (string, error) {
	token := s.newToken()
	if err := s.client.Set(ctx, resultTokenPrefix+token, orderNumber, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// TryGet resolves a token to its order number, refreshing the TTL.
// Returns ok=false on an expired or unknown token.
func (s *ResultTokenStore) TryGet(ctx context.Context, token string) (string, bool, error) {
	orderNumber, err := s.client.GetEx(ctx, resultTokenPrefix+token, s.ttl).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, err
	}
	return orderNumber, true, nil
}

// Invalidate removes a token.
func (s *ResultTokenStore) Invalidate(ctx context.Context, token string) error {
	return s.client.Del(ctx, resultTokenPrefix+token).Err()
}
