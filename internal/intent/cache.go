package intent

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"sync"
	"time"
)

type cacheEntry struct {
	intent string
	at     time.Time
}

// Cache keeps recently detected intents keyed by the md5 of the
// utterance text, so repeated phrases skip the model call.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewCache(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func cacheKey(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) Get(text string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[cacheKey(text)]
	if !ok || c.now().Sub(entry.at) > c.ttl {
		return "", false
	}
	return entry.intent, true
}

func (c *Cache) Put(text, intent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
	c.entries[cacheKey(text)] = cacheEntry{intent: intent, at: c.now()}
}

// evictLocked drops expired entries first, then the oldest entries past
// the size cap.
func (c *Cache) evictLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.at) > c.ttl {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyedEntry struct {
		key string
		at  time.Time
	}
	ordered := make([]keyedEntry, 0, len(c.entries))
	for key, entry := range c.entries {
		ordered = append(ordered, keyedEntry{key: key, at: entry.at})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].at.Before(ordered[j].at) })
	for _, item := range ordered[:len(ordered)-c.maxEntries] {
		delete(c.entries, item.key)
	}
}
