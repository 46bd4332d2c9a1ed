// Package querycache provides an LRU cache of recent kNN query results,
// sitting in front of PointData.GetNN. Grounded on the teacher's
// pkg/search LRUCache (container/list-based, thread-safe, TTL-aware); the
// text/hybrid-search-specific key generators and result wrappers are
// replaced with one kNN-specific key and a []geo.Result value type.
package querycache

import (
	"container/list"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/geoknn/pkg/geo"
)

// Key uniquely identifies one cached query.
type Key string

// GenerateKey builds a Key from the query that produced a result set:
// index name, dimensionality, coordinates and requested neighbor count.
// Queries are immutable once an index is frozen, so this key never needs
// invalidation beyond TTL expiry.
func GenerateKey(index string, x, y, z int64, has3D bool, k int) Key {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|", index, k)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(x))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(y))
	h.Write(buf[:])
	if has3D {
		binary.BigEndian.PutUint64(buf[:], uint64(z))
		h.Write(buf[:])
	}
	return Key(fmt.Sprintf("%x", h.Sum(nil)))
}

type entry struct {
	key       Key
	value     []geo.Result
	expiresAt time.Time
}

// LRUCache is a thread-safe, optionally TTL-bounded LRU cache of kNN
// result sets.
type LRUCache struct {
	capacity int
	ttl      time.Duration

	mu    sync.RWMutex
	index map[Key]*list.Element
	order *list.List

	hits   int64
	misses int64
}

// New returns an LRUCache holding at most capacity entries, each expiring
// ttl after insertion (ttl <= 0 disables expiration).
func New(capacity int, ttl time.Duration) *LRUCache {
	return &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		index:    make(map[Key]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached result set for key, if present and unexpired.
func (c *LRUCache) Get(key Key) ([]geo.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e := elem.Value.(*entry)
	if c.ttl > 0 && time.Now().After(e.expiresAt) {
		c.removeElement(elem)
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(elem)
	c.hits++
	return e.value, true
}

// Put inserts or refreshes the cached result set for key, evicting the
// least-recently-used entry if the cache is over capacity.
func (c *LRUCache) Put(key Key, value []geo.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		e := elem.Value.(*entry)
		e.value = value
		if c.ttl > 0 {
			e.expiresAt = time.Now().Add(c.ttl)
		}
		c.order.MoveToFront(elem)
		return
	}

	e := &entry{key: key, value: value}
	if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	elem := c.order.PushFront(e)
	c.index[key] = elem

	if c.capacity > 0 && c.order.Len() > c.capacity {
		c.evictOldest()
	}
}

// Size returns the current number of cached entries.
func (c *LRUCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// Stats returns the cumulative hit and miss counts.
func (c *LRUCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Clear empties the cache and resets its statistics.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = make(map[Key]*list.Element, c.capacity)
	c.order.Init()
	c.hits, c.misses = 0, 0
}

func (c *LRUCache) evictOldest() {
	elem := c.order.Back()
	if elem != nil {
		c.removeElement(elem)
	}
}

func (c *LRUCache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	e := elem.Value.(*entry)
	delete(c.index, e.key)
}
