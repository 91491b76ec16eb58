package db

import (
	"context"
	"time"
)

// Store is the coordination store facade.
type Store interface {
	Pinger
	Locker
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Locker provides token-guarded mutual exclusion keys with a TTL.
type Locker interface {
	// TryLock sets key to token if key is absent. Reports whether the lock was taken.
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Unlock deletes key only while it still holds token. Reports whether it was released.
	Unlock(ctx context.Context, key, token string) (bool, error)
	// Extend resets the TTL of key only while it still holds token.
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}
