package labelstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

// MemoryStore is a process-local label cache.
// Entries are kept encoded so callers never share a LabelSet with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	now     func() time.Time
	logger  *logger.Logger
}

type memEntry struct {
	data    []byte
	savedAt time.Time
}

// MemoryStats reports the store size
type MemoryStats struct {
	Count  int       `json:"count"`
	Bytes  int       `json:"bytes"`
	Oldest time.Time `json:"oldest"`
	Newest time.Time `json:"newest"`
}

// NewMemoryStore creates an empty store
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memEntry),
		now:     time.Now,
		logger:  log.Component("labelstore.memory"),
	}
}

// Load implements contracts.LabelStore
func (s *MemoryStore) Load(ctx context.Context, fingerprint string) (*contracts.CacheEntry, error) {
	if !contracts.IsValidFingerprint(fingerprint) {
		return nil, fmt.Errorf("%w: %q", contracts.ErrInvalidFingerprint, fingerprint)
	}

	s.mu.RLock()
	e, ok := s.entries[fingerprint]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrCacheMiss, fingerprint)
	}
	return decodeBytes(e.data)
}

// Save implements contracts.LabelStore
func (s *MemoryStore) Save(ctx context.Context, entry *contracts.CacheEntry) error {
	if !contracts.IsValidFingerprint(entry.Fingerprint) {
		return fmt.Errorf("%w: %q", contracts.ErrInvalidFingerprint, entry.Fingerprint)
	}

	data, err := encodeBytes(entry)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[entry.Fingerprint] = memEntry{data: data, savedAt: s.now()}
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"fingerprint": entry.Fingerprint,
		"bytes":       len(data),
	}).Debug("Stored labels in memory")
	return nil
}

// LoadLatest implements contracts.LabelStore
func (s *MemoryStore) LoadLatest(ctx context.Context) (*contracts.CacheEntry, error) {
	s.mu.RLock()
	var latest *memEntry
	for fp := range s.entries {
		e := s.entries[fp]
		if latest == nil || e.savedAt.After(latest.savedAt) {
			latest = &e
		}
	}
	s.mu.RUnlock()

	if latest == nil {
		return nil, contracts.ErrCacheMiss
	}
	return decodeBytes(latest.data)
}

// Prune implements contracts.LabelStore
func (s *MemoryStore) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	count := 0
	for fp, e := range s.entries {
		if e.savedAt.Before(cutoff) {
			delete(s.entries, fp)
			count++
		}
	}

	if count > 0 {
		s.logger.WithField("count", count).Info("Pruned labels from memory")
	}
	return count, nil
}

// Len returns the number of cached entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns store statistics
func (s *MemoryStore) Stats() MemoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st MemoryStats
	for _, e := range s.entries {
		st.Count++
		st.Bytes += len(e.data)
		if st.Oldest.IsZero() || e.savedAt.Before(st.Oldest) {
			st.Oldest = e.savedAt
		}
		if e.savedAt.After(st.Newest) {
			st.Newest = e.savedAt
		}
	}
	return st
}
