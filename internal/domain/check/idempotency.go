package check

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdempotencyTTL is how long a replayed Idempotency-Key returns the
// original record instead of running the pipeline again.
const DefaultIdempotencyTTL = 10 * time.Minute

type idemEntry struct {
	recordID  uuid.UUID
	expiresAt time.Time
}

// IdempotencyCache remembers which record a given Idempotency-Key produced
// so retried requests do not trigger duplicate pipeline runs. Entries
// expire after a TTL; expired entries are swept lazily on access.
type IdempotencyCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]idemEntry
	now     func() time.Time
}

func NewIdempotencyCache(ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyCache{
		ttl:     ttl,
		entries: make(map[string]idemEntry),
		now:     time.Now,
	}
}

// Get returns the record id stored for key, if present and unexpired.
func (c *IdempotencyCache) Get(key string) (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return uuid.Nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return uuid.Nil, false
	}
	return entry.recordID, true
}

// Put stores the record id produced for key.
func (c *IdempotencyCache) Put(key string, recordID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	c.entries[key] = idemEntry{recordID: recordID, expiresAt: c.now().Add(c.ttl)}
}

func (c *IdempotencyCache) sweepLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}
