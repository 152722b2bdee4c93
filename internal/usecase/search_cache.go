package usecase

import (
	"context"
	"time"
)

// Cache is the key-value store behind the dataset cache, search result
// cache and refresh locks.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

// HistoryStore keeps short per-client lists, newest first.
type HistoryStore interface {
	PushUnique(ctx context.Context, key, value string, max int, ttl time.Duration) error
	ListRange(ctx context.Context, key string, max int) ([]string, error)
	ListRemove(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Notifier pushes events to connected clients.
type Notifier interface {
	Notify(event string, payload any)
}
