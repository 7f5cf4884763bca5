// Package cache is the persistent store of previously computed conversion
// results, keyed by the full conversion context including the settings
// hash. Entries expire by age, are evicted oldest-first past the size cap,
// and survive process restarts through the kv store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/finvoq/fxcache/config"
	"github.com/finvoq/fxcache/pkg/currency"
	"github.com/finvoq/fxcache/pkg/domain"
	"github.com/finvoq/fxcache/pkg/kv"
)

// Entry is a cached conversion result plus the metadata that decides its
// validity.
type Entry struct {
	Result       domain.ConversionResult `json:"result"`
	RequestID    string                  `json:"request_id"`
	Key          string                  `json:"cache_key"`
	Timestamp    time.Time               `json:"timestamp"`
	SettingsHash string                  `json:"settings_hash"`
}

// Stats is the observability snapshot exposed by the conversion service.
type Stats struct {
	TotalCached  int     `json:"total_cached"`
	HitRate      float64 `json:"hit_rate"`
	SizeEstimate int     `json:"cache_size_estimate"`
}

// Cache holds conversion entries in memory and mirrors the full map into
// the kv store under a versioned key.
type Cache struct {
	store  kv.Store
	logger *slog.Logger

	maxAge       time.Duration
	maxSize      int
	cleanupEvery int
	storeKey     string

	mu           sync.Mutex
	entries      map[string]*Entry
	puts         int
	hits, misses uint64
	sizeEstimate int

	now func() time.Time
}

// Key derives the deterministic cache key from the full conversion context.
// The settings hash is part of the key, so a settings change produces brand
// new keys and stale entries simply become unreachable.
func Key(requestID string, amount float64, from, to currency.Code, dateKey, settingsHash string) string {
	return fmt.Sprintf("conv:%s:%.4f:%s:%s:%s:%s", requestID, amount, from, to, dateKey, settingsHash)
}

// New creates a cache and loads the persisted entry map, discarding entries
// already expired at load time.
func New(ctx context.Context, store kv.Store, cfg config.Cache, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		store:        store,
		logger:       logger.With("component", "conversion_cache"),
		maxAge:       cfg.MaxAge,
		maxSize:      cfg.MaxSize,
		cleanupEvery: cfg.CleanupEvery,
		storeKey:     "conversions_" + cfg.Version,
		entries:      make(map[string]*Entry),
		now:          time.Now,
	}
	c.load(ctx)
	return c
}

// Get returns the entry for key when present, fresh, and computed under the
// current settings. Expired entries are evicted before being read; a
// settings-hash mismatch is a miss, not an error.
func (c *Cache) Get(key, settingsHash string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().Sub(entry.Timestamp) > c.maxAge {
		delete(c.entries, key)
		c.misses++
		c.logger.Debug("cache entry expired", "key", key)
		return nil, false
	}
	if entry.SettingsHash != settingsHash {
		c.misses++
		c.logger.Debug("cache entry settings hash mismatch", "key", key)
		return nil, false
	}

	c.hits++
	return entry, true
}

// Put inserts or overwrites an entry with the current timestamp and
// persists the map immediately. Every cleanupEvery inserts, expired entries
// are dropped and the oldest entries are evicted until the cache is back
// under its size cap.
func (c *Cache) Put(ctx context.Context, entry *Entry) {
	c.mu.Lock()
	entry.Timestamp = c.now()
	c.entries[entry.Key] = entry
	c.puts++
	if c.cleanupEvery > 0 && c.puts%c.cleanupEvery == 0 {
		c.cleanupLocked()
	}
	c.mu.Unlock()

	c.persist(ctx)
}

// InvalidateAll clears every entry, in memory and in the store. Called on
// logout and on settings changes the host treats as a hard reset.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.sizeEstimate = 0
	c.mu.Unlock()

	c.logger.Info("conversion cache invalidated")
	return c.store.Remove(ctx, c.storeKey)
}

// Stats reports entry count, hit rate, and the serialized size of the last
// persisted snapshot.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		TotalCached:  len(c.entries),
		HitRate:      hitRate,
		SizeEstimate: c.sizeEstimate,
	}
}

// cleanupLocked drops expired entries, then the oldest entries by insertion
// timestamp until the size cap holds. Caller must hold c.mu.
func (c *Cache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.Timestamp) > c.maxAge {
			delete(c.entries, key)
		}
	}

	if c.maxSize <= 0 || len(c.entries) <= c.maxSize {
		return
	}

	byAge := make([]*Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		byAge = append(byAge, entry)
	}
	sort.Slice(byAge, func(i, j int) bool {
		return byAge[i].Timestamp.Before(byAge[j].Timestamp)
	})
	for _, entry := range byAge[:len(c.entries)-c.maxSize] {
		delete(c.entries, entry.Key)
	}
}

func (c *Cache) persist(ctx context.Context) {
	c.mu.Lock()
	raw, err := json.Marshal(c.entries)
	if err == nil {
		c.sizeEstimate = len(raw)
	}
	c.mu.Unlock()
	if err != nil {
		c.logger.Error("failed to serialize conversion cache", "error", err)
		return
	}

	if err := c.store.Set(ctx, c.storeKey, string(raw)); err != nil {
		c.logger.Warn("failed to persist conversion cache", "error", err)
	}
}

func (c *Cache) load(ctx context.Context) {
	raw, found, err := c.store.Get(ctx, c.storeKey)
	if err != nil {
		c.logger.Warn("failed to load persisted conversion cache", "error", err)
		return
	}
	if !found {
		return
	}

	var persisted map[string]*Entry
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		c.logger.Warn("discarding corrupt persisted conversion cache", "error", err)
		return
	}

	now := c.now()
	loaded := 0
	for key, entry := range persisted {
		if entry == nil || now.Sub(entry.Timestamp) > c.maxAge {
			continue
		}
		c.entries[key] = entry
		loaded++
	}
	c.sizeEstimate = len(raw)
	c.logger.Info("conversion cache loaded", "entries", loaded, "discarded", len(persisted)-loaded)
}
