package cms

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type entry struct {
	seq   uint64
	value any
}

// sequencedCache is a TTL cache whose fills carry a sequence number taken
// when the fetch started. A fill older than the one already stored for the
// key is dropped, so a slow superseded fetch never overwrites fresher data.
type sequencedCache struct {
	mu      sync.Mutex
	entries *expirable.LRU[string, entry]
	// marks remembers the last stored sequence per key beyond entry expiry.
	marks *lru.Cache[string, uint64]
}

var sequence atomic.Uint64

// nextSeq hands out process-wide increasing sequence numbers.
func nextSeq() uint64 { return sequence.Add(1) }

func newSequencedCache(size int, ttl time.Duration) *sequencedCache {
	if size <= 0 {
		size = 512
	}
	marks, _ := lru.New[string, uint64](size * 4)
	return &sequencedCache{
		entries: expirable.NewLRU[string, entry](size, nil, ttl),
		marks:   marks,
	}
}

func (c *sequencedCache) get(key string) (any, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// store saves value under key unless a newer fill already landed. It reports
// whether the value was kept.
func (c *sequencedCache) store(key string, seq uint64, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.marks.Get(key); ok && seq < last {
		return false
	}
	c.marks.Add(key, seq)
	c.entries.Add(key, entry{seq: seq, value: value})
	return true
}

func (c *sequencedCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

func (c *sequencedCache) len() int { return c.entries.Len() }
