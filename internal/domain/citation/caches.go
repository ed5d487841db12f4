package citation

import (
	"context"
	"sync"
	"time"
)

// RecentNames is a bounded insertion-order cache of the most recently
// resolved case names within one document.  Short-form references ("Id.",
// "id. at 12") resolve against its newest entry.  When full, the oldest
// entry is evicted.
//
// Instances are confined to a single document-processing call, but the
// mutex keeps them safe if the extractors sharing one happen to run
// concurrently.
type RecentNames struct {
	mu    sync.Mutex
	limit int
	names []namedCase
}

type namedCase struct {
	name string
	date string
}

// NewRecentNames returns a cache holding at most limit entries.
// A non-positive limit disables the cache entirely.
func NewRecentNames(limit int) *RecentNames {
	return &RecentNames{limit: limit}
}

// Push records a resolved case name.  Empty names are ignored; a name equal
// to the current newest entry refreshes its date instead of duplicating.
func (c *RecentNames) Push(name, date string) {
	if c == nil || c.limit <= 0 || name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.names); n > 0 && c.names[n-1].name == name {
		if date != "" {
			c.names[n-1].date = date
		}
		return
	}
	c.names = append(c.names, namedCase{name: name, date: date})
	if len(c.names) > c.limit {
		c.names = c.names[1:]
	}
}

// Latest returns the most recently pushed name and date.
func (c *RecentNames) Latest() (name, date string, ok bool) {
	if c == nil {
		return "", "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.names) == 0 {
		return "", "", false
	}
	last := c.names[len(c.names)-1]
	return last.name, last.date, true
}

// Len reports the number of cached names.
func (c *RecentNames) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

// ParallelEntry is a resolved name/date propagated to citations the
// grouper determines are parallel, so a cluster needs only one lookup.
type ParallelEntry struct {
	CaseName string
	Date     string
}

// ParallelCache maps normalized citation keys to resolved case metadata.
// Writes overwrite rather than merge; when the cache is full, the oldest
// key is evicted.
type ParallelCache struct {
	mu      sync.Mutex
	limit   int
	order   []string
	entries map[string]ParallelEntry
}

// NewParallelCache returns a cache holding at most limit keys.
func NewParallelCache(limit int) *ParallelCache {
	return &ParallelCache{
		limit:   limit,
		entries: make(map[string]ParallelEntry),
	}
}

// Put stores entry under the normalized form of key, overwriting any
// previous value for the same key.
func (c *ParallelCache) Put(key string, entry ParallelEntry) {
	if c == nil || c.limit <= 0 {
		return
	}
	key = NormalizeCitation(key)
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
		if len(c.order) > c.limit {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.entries[key] = entry
}

// Get returns the entry stored under the normalized form of key.
func (c *ParallelCache) Get(key string) (ParallelEntry, bool) {
	if c == nil {
		return ParallelEntry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[NormalizeCitation(key)]
	return entry, ok
}

// Len reports the number of cached keys.
func (c *ParallelCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// MemoryVerificationCache is a process-local VerificationCache with per-entry
// TTL and bounded size.  Deployments without Redis fall back to it so that a
// document citing the same authority repeatedly still makes one lookup.
type MemoryVerificationCache struct {
	mu      sync.Mutex
	limit   int
	ttl     time.Duration
	order   []string
	entries map[string]memoryCacheEntry

	now func() time.Time // test hook
}

type memoryCacheEntry struct {
	result    LookupResult
	expiresAt time.Time
}

// NewMemoryVerificationCache returns a cache holding at most limit entries
// for at most ttl each.  Non-positive arguments fall back to 1024 entries
// and one hour.
func NewMemoryVerificationCache(limit int, ttl time.Duration) *MemoryVerificationCache {
	if limit <= 0 {
		limit = 1024
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryVerificationCache{
		limit:   limit,
		ttl:     ttl,
		entries: make(map[string]memoryCacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached result for the normalized form of cite.  Expired
// entries are dropped and reported as misses.
func (c *MemoryVerificationCache) Get(_ context.Context, cite string) (*LookupResult, bool, error) {
	key := NormalizeCitation(cite)
	if key == "" {
		return nil, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.evict(key)
		return nil, false, nil
	}
	result := entry.result
	return &result, true, nil
}

// Set stores a copy of result under the normalized form of cite.
func (c *MemoryVerificationCache) Set(_ context.Context, cite string, result *LookupResult) error {
	key := NormalizeCitation(cite)
	if key == "" || result == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
		if len(c.order) > c.limit {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.entries[key] = memoryCacheEntry{
		result:    *result,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Len reports the number of live entries, including any not yet expired.
func (c *MemoryVerificationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evict removes key; the caller holds the lock.
func (c *MemoryVerificationCache) evict(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
