package redis

import (
	"context"
	"time"
)

// TokenStoreInterface defines the interface for result-token operations.
type TokenStoreInterface interface {
	Save(ctx context.Context, orderNumber string) (string, error)
	TryGet(ctx context.Context, token string) (string, bool, error)
	Invalidate(ctx context.Context, token string) error
}

// OrderLockInterface defines the interface for per-order distributed locking.
type OrderLockInterface interface {
	AcquireOrderLock(ctx context.Context, orderNumber string, ttl time.Duration) (bool, error)
	ReleaseOrderLock(ctx context.Context, orderNumber string) error
}

// Ensure concrete types implement interfaces.
var (
	_ TokenStoreInterface = (*ResultTokenStore)(nil)
	_ OrderLockInterface  = (*OrderLockStore)(nil)
)
