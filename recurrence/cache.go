package recurrence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"slices"
	"sync"
	"time"
)

// CacheEntry represents a cached recurrence result
type CacheEntry struct {
	Result     any // bool for HasOccurrenceInRange, []TimeOccurrence for Expand
	ExpiresAt  time.Time
	AccessedAt time.Time
}

// RecurrenceCache provides caching for recurrence expansion and validation results
type RecurrenceCache struct {
	entries         map[string]*CacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once

	hits, misses int
}

// CacheConfig holds configuration for the recurrence cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup
}

// DefaultCacheConfig provides sensible defaults for recurrence caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewRecurrenceCache creates a new recurrence cache with the given configuration
func NewRecurrenceCache(config CacheConfig) *RecurrenceCache {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}
	cache := &RecurrenceCache{
		entries:         make(map[string]*CacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// cacheKey hashes every input that can change the result of an operation.
// Instants are written with their zone since results carry it.
func cacheKey(operation string, masterStart, masterEnd time.Time, info RecurrenceInfo, rangeStart, rangeEnd time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00", operation)
	writeInstant(h, masterStart)
	writeInstant(h, masterEnd)
	writeInstant(h, rangeStart)
	writeInstant(h, rangeEnd)

	for _, r := range info.RRULE {
		fmt.Fprintf(h, "R:%s\x00", r)
	}
	for _, r := range info.EXRULE {
		fmt.Fprintf(h, "X:%s\x00", r)
	}
	h.Write([]byte("RDATE\x00"))
	for _, t := range info.RDATE {
		writeInstant(h, t)
	}
	h.Write([]byte("EXDATE\x00"))
	for _, t := range info.EXDATE {
		writeInstant(h, t)
	}
	if info.RecurrenceID != nil {
		h.Write([]byte("RECURRENCE-ID\x00"))
		writeInstant(h, *info.RecurrenceID)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeInstant(h hash.Hash, t time.Time) {
	fmt.Fprintf(h, "%d@%s\x00", t.Unix(), t.Location())
}

// Get retrieves a cached result if it exists and hasn't expired
func (c *RecurrenceCache) Get(operation string, masterStart, masterEnd time.Time, info RecurrenceInfo, rangeStart, rangeEnd time.Time) (any, bool) {
	key := cacheKey(operation, masterStart, masterEnd, info, rangeStart, rangeEnd)
	now := time.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if ok && now.After(entry.ExpiresAt) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}

	c.hits++
	entry.AccessedAt = now
	return entry.Result, true
}

// Set stores a result in the cache
func (c *RecurrenceCache) Set(operation string, masterStart, masterEnd time.Time, info RecurrenceInfo, rangeStart, rangeEnd time.Time, result any) {
	key := cacheKey(operation, masterStart, masterEnd, info, rangeStart, rangeEnd)
	now := time.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = &CacheEntry{
		Result:     result,
		ExpiresAt:  now.Add(c.ttl),
		AccessedAt: now,
	}

	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup removes expired entries, then the least recently accessed ones
// until the cache is within its limit. The caller holds the write lock.
func (c *RecurrenceCache) cleanup() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}

	excess := len(c.entries) - c.maxEntries
	if excess <= 0 {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return c.entries[a].AccessedAt.Compare(c.entries[b].AccessedAt)
	})
	for _, key := range keys[:excess] {
		delete(c.entries, key)
	}
}

func (c *RecurrenceCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache. It is safe to
// call more than once.
func (c *RecurrenceCache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCleanup)
	})
	c.mutex.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *RecurrenceCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := CacheStats{
		TotalEntries: len(c.entries),
		Hits:         c.hits,
		Misses:       c.misses,
	}
	now := time.Now()
	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			stats.ExpiredEntries++
		}
	}
	stats.ActiveEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats
}

// CacheStats provides information about cache performance
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
	Hits           int
	Misses         int
}
