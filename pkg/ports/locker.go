package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes workflow operations on one session across
// server replicas sharing a StateStore.
type DistributedLocker interface {
	// Lock blocks until the session key is held or ctx is done. The lock
	// expires after ttl if the holder never releases it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
