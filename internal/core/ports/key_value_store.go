package ports

import "context"

// KeyValueStore is the durable string store clients persist credentials in.
// Get reports ok=false for a missing key rather than an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
