// Package memo caches per-candidate feature evaluations so repeated scoring
// requests over unchanged inputs skip recomputation.
package memo

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/fixturedensity/internal/domain/overlap"
)

const defaultMaxSize = 4096

// Cache stores candidate features by key.
type Cache interface {
	// Get returns the cached features for key.
	Get(ctx context.Context, key uint64) (overlap.Features, bool)
	// Put records features for key, evicting the oldest entry when full.
	Put(ctx context.Context, key uint64, f overlap.Features)
	Size() int64
	Stats() Stats
}

// Stats are cumulative cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// node is one entry of the insertion-ordered list.
type node struct {
	key        uint64
	features   overlap.Features
	prev, next *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryCache keeps entries in a map plus a doubly linked list ordered by
// insertion: head is the newest entry, tail the next to be evicted.
type inMemoryCache struct {
	mu       sync.Mutex
	entries  map[uint64]*node
	head     *node
	tail     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewInMemoryCache creates a bounded cache.
func NewInMemoryCache(opts ...Option) Cache {
	c := &inMemoryCache{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[uint64]*node)
	c.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return c
}

func (c *inMemoryCache) Get(_ context.Context, key uint64) (overlap.Features, bool) {
	c.mu.Lock()
	n, ok := c.entries[key]
	var f overlap.Features
	if ok {
		f = n.features
	}
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return f, ok
}

func (c *inMemoryCache) Put(_ context.Context, key uint64, f overlap.Features) {
	if c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, exists := c.entries[key]; exists {
		n.features = f
		return
	}
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node)
	n.key = key
	n.features = f
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
	c.entries[key] = n
	c.size.Add(1)
}

// evictOldest removes the tail. Must be called with c.mu held.
func (c *inMemoryCache) evictOldest() {
	n := c.tail
	if n == nil {
		return
	}
	c.tail = n.prev
	if c.tail != nil {
		c.tail.next = nil
	} else {
		c.head = nil
	}
	delete(c.entries, n.key)
	n.reset()
	c.nodePool.Put(n)
	c.size.Add(-1)
	c.evictions.Add(1)
}

func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}

func (c *inMemoryCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Evictions: c.evictions.Load()}
}
