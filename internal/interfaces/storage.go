package interfaces

import "context"

// CacheStore is a namespaced key-value cache with a fixed TTL. Entries
// survive process restarts but are private to a single process.
type CacheStore interface {
	// Get reads the entry for (namespace, id) into out and reports whether a
	// non-expired entry existed. Expired or unreadable entries are evicted
	// and reported as absent, never as errors.
	Get(ctx context.Context, namespace, id string, out any) bool

	// Set overwrites the entry for (namespace, id) unconditionally and
	// stamps it with the current time.
	Set(ctx context.Context, namespace, id string, value any) error

	// Clear removes every entry in the namespace.
	Clear(ctx context.Context, namespace string) error

	// ClearKey removes a single entry. Missing entries are not an error.
	ClearKey(ctx context.Context, namespace, id string) error

	Close() error
}
