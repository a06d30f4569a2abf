package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OrderLockStore serializes the read-modify-write payment upsert per order
// number across all backend instances.
type OrderLockStore struct {
	client *redis.Client
}

// NewOrderLockStore creates a new OrderLockStore.
func NewOrderLockStore(client *redis.Client) *OrderLockStore {
	return &OrderLockStore{client: client}
}

// AcquireOrderLock attempts to acquire the lock for the given order number.
// Returns true if the lock was acquired, false if already held.
func (s *OrderLockStore) AcquireOrderLock(ctx context.Context, orderNumber string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:orden:%s", orderNumber)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseOrderLock releases the lock for the given order number.
func (s *OrderLockStore) ReleaseOrderLock(ctx context.Context, orderNumber string) error {
	key := fmt.Sprintf("lock:orden:%s", orderNumber)

	return s.client.Del(ctx, key).Err()
}
