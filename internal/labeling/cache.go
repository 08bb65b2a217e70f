package labeling

import (
	"context"
	"errors"
	"time"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

// Cache is the fail-soft front of a LabelStore.
// Read and write faults are logged and reported as a miss / no-op; they never
// abort a sweep.
type Cache struct {
	store  contracts.LabelStore
	logger *logger.Logger
}

// NewCache wraps a store. A nil store disables caching.
func NewCache(store contracts.LabelStore, log *logger.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: log.Component("labeling.cache"),
	}
}

// Enabled reports whether a store is attached
func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil
}

// Lookup returns the cached entry for fingerprint, or false on miss or fault
func (c *Cache) Lookup(ctx context.Context, fingerprint string) (*contracts.CacheEntry, bool) {
	if !c.Enabled() {
		return nil, false
	}

	entry, err := c.store.Load(ctx, fingerprint)
	if err != nil {
		if !errors.Is(err, contracts.ErrCacheMiss) {
			c.logger.WithError(err).WithField("fingerprint", fingerprint).
				Warn("Cache read failed, recomputing labels")
		}
		return nil, false
	}

	if entry.Labels == nil || entry.Fingerprint != fingerprint {
		c.logger.WithField("fingerprint", fingerprint).Warn("Cache entry malformed, recomputing labels")
		return nil, false
	}

	c.logger.WithFields(map[string]interface{}{
		"fingerprint": fingerprint,
		"configs":     entry.Labels.Len(),
		"created_at":  entry.CreatedAt.Format(time.RFC3339),
	}).Info("Loading labels from cache")

	return entry, true
}

// Store persists an entry; failures are logged and swallowed
func (c *Cache) Store(ctx context.Context, entry *contracts.CacheEntry) bool {
	if !c.Enabled() {
		return false
	}

	if err := c.store.Save(ctx, entry); err != nil {
		c.logger.WithError(err).WithField("fingerprint", entry.Fingerprint).
			Warn("Cache write failed, labels not persisted")
		return false
	}

	c.logger.WithField("fingerprint", entry.Fingerprint).Info("Labels cached")
	return true
}
