package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache is a bounded map whose entries expire after a fixed TTL. When full,
// the least recently read or written entry is dropped.
type LRUCache[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	index map[string]*list.Element
	order *list.List // front is most recently used

	stats Stats
}

// Stats reports lookup outcomes since creation. Evictions counts entries
// dropped for capacity, not for expiry.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

func NewLRUCache[T any](capacity int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		index:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if ok && c.expired(el) {
		c.drop(el)
		ok = false
	}
	if !ok {
		c.stats.Misses++
		var zero T
		return zero, false
	}
	c.stats.Hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry[T]).value, true
}

// Set stores value under key and restarts its TTL.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if el, ok := c.index[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(e)
	for c.order.Len() > c.capacity {
		c.drop(c.order.Back())
		c.stats.Evictions++
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.drop(el)
	}
}

// CleanExpired drops every expired entry and returns how many were dropped.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el) {
			c.drop(el)
			n++
		}
		el = prev
	}
	return n
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRUCache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.stats
	st.Size = len(c.index)
	return st
}

func (c *LRUCache[T]) expired(el *list.Element) bool {
	return c.now().After(el.Value.(*entry[T]).expires)
}

func (c *LRUCache[T]) drop(el *list.Element) {
	delete(c.index, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}
