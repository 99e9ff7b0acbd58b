package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultRecordCapacity bounds the metrics-record cache. One entry per
// active user and settings combination, so a few hundred covers a
// single-process deployment.
const DefaultRecordCapacity = 256

// RecordTTL caps how long a computed record may be served. The cache key
// already changes on every overlay edit; the TTL only guards wall-clock
// staleness such as the spend-day rollover.
const RecordTTL = time.Minute

// LRUCache is a bounded TTL cache with least-recently-used eviction.
// Safe for concurrent use.
type LRUCache[T any] struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	index map[string]*list.Element
	order *list.List // front is most recently used
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

func NewLRUCache[T any](capacity int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		cap:   capacity,
		ttl:   ttl,
		index: make(map[string]*list.Element, capacity),
		order: list.New(),
	}
}

// Get returns the cached value and refreshes its recency. An expired entry
// is dropped on access and reported as a miss.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.index[key]
	if !ok {
		return zero, false
	}
	ent := elem.Value.(*entry[T])
	if time.Now().After(ent.expires) {
		c.evict(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return ent.value, true
}

// Set stores a value under key, restarting its TTL. When the cache is full
// the least recently used entry makes room.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		ent := elem.Value.(*entry[T])
		ent.value = value
		ent.expires = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	c.index[key] = c.order.PushFront(&entry[T]{
		key:     key,
		value:   value,
		expires: time.Now().Add(c.ttl),
	})
	if c.order.Len() > c.cap {
		if oldest := c.order.Back(); oldest != nil {
			c.evict(oldest)
		}
	}
}

// Delete drops the entry for key, if present.
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[key]; ok {
		c.evict(elem)
	}
}

// CleanExpired drops every expired entry and reports how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*entry[T]).expires) {
			c.evict(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// Size counts the stored entries, expired ones included until they are
// touched or cleaned.
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRUCache[T]) evict(elem *list.Element) {
	delete(c.index, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
