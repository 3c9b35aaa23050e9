package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/linqiu/folio/internal/common"
)

// Cache namespaces. The asset list is a singleton; the others are keyed per
// asset name or per instrument secid.
const (
	NamespaceAssets          = "assets"
	NamespaceTrades          = "trades"
	NamespaceCompletedTrades = "completed_trades"
	NamespaceKline           = "kline"
)

// DefaultTTL is the default entry lifetime.
const DefaultTTL = 24 * time.Hour

// CacheEntry is one cached payload. Payload is the JSON encoding of the
// stored value; StoredAt drives TTL eviction.
type CacheEntry struct {
	Key       string `badgerhold:"key"`
	Namespace string `badgerholdIndex:"Namespace"`
	Payload   []byte
	StoredAt  time.Time
}

// CacheStorage implements interfaces.CacheStore on a BadgerHold store.
// Writes are last-writer-wins; there is no cross-key isolation.
type CacheStorage struct {
	store  *Store
	logger *common.Logger
	ttl    time.Duration
	now    func() time.Time // injectable clock for testing
}

// NewCacheStorage creates a cache with the given TTL (DefaultTTL if ttl <= 0).
func NewCacheStorage(store *Store, logger *common.Logger, ttl time.Duration) *CacheStorage {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CacheStorage{
		store:  store,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
	}
}

// composeKey builds the storage key. Singleton namespaces pass id == "".
func composeKey(namespace, id string) string {
	if id == "" {
		return namespace
	}
	return namespace + ":" + id
}

// Get reads the entry for (namespace, id) into out. An entry older than the
// TTL is deleted and reported absent; the boundary (age == TTL) is a hit.
// A payload that no longer parses is evicted and treated as a miss.
func (s *CacheStorage) Get(_ context.Context, namespace, id string, out any) bool {
	key := composeKey(namespace, id)

	var entry CacheEntry
	if err := s.store.db.Get(key, &entry); err != nil {
		if err != badgerhold.ErrNotFound {
			s.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}

	if s.now().Sub(entry.StoredAt) > s.ttl {
		if err := s.store.db.Delete(key, CacheEntry{}); err != nil && err != badgerhold.ErrNotFound {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to evict expired cache entry")
		}
		s.logger.Debug().Str("key", key).Time("stored_at", entry.StoredAt).Msg("Cache entry expired")
		return false
	}

	if err := json.Unmarshal(entry.Payload, out); err != nil {
		// Corrupt payloads are a silent miss, never an error to the caller.
		s.logger.Warn().Err(err).Str("key", key).Msg("Corrupt cache payload, evicting")
		if err := s.store.db.Delete(key, CacheEntry{}); err != nil && err != badgerhold.ErrNotFound {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to evict corrupt cache entry")
		}
		return false
	}

	return true
}

// Set overwrites the entry for (namespace, id) and stamps the current time.
func (s *CacheStorage) Set(_ context.Context, namespace, id string, value any) error {
	key := composeKey(namespace, id)

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload for '%s': %w", key, err)
	}

	entry := CacheEntry{
		Key:       key,
		Namespace: namespace,
		Payload:   payload,
		StoredAt:  s.now(),
	}
	if err := s.store.db.Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to set cache key '%s': %w", key, err)
	}
	return nil
}

// Clear removes every entry in the namespace.
func (s *CacheStorage) Clear(_ context.Context, namespace string) error {
	query := badgerhold.Where("Namespace").Eq(namespace).Index("Namespace")
	if err := s.store.db.DeleteMatching(CacheEntry{}, query); err != nil {
		return fmt.Errorf("failed to clear cache namespace '%s': %w", namespace, err)
	}
	s.logger.Debug().Str("namespace", namespace).Msg("Cache namespace cleared")
	return nil
}

// ClearKey removes a single entry. Missing entries are not an error.
func (s *CacheStorage) ClearKey(_ context.Context, namespace, id string) error {
	key := composeKey(namespace, id)
	if err := s.store.db.Delete(key, CacheEntry{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to clear cache key '%s': %w", key, err)
	}
	return nil
}

// Close closes the underlying store.
func (s *CacheStorage) Close() error {
	return s.store.Close()
}
