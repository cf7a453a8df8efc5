package ports

import "context"

// KeyValueStore is the durable string store behind the cache, the offline
// queue and the identity. Get returns domain.ErrNotFound for missing keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
}
