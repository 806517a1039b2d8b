package cache

import (
	"sort"
	"sync"

	"medianav/domain/contracts"
)

// ProximityStore is a thread-safe index -> value store bounded by proximity
// eviction: once it holds more than maxSize entries, Evict drops every index
// farther than keepWindow from the anchor. It is not an LRU; an entry the user
// scrolled away from is dropped even if it is about to be revisited.
type ProximityStore[T any] struct {
	entries    map[int]T
	mu         sync.RWMutex
	maxSize    int
	keepWindow int
}

// NewProximityStore creates a store with the given size bound and keep window.
func NewProximityStore[T any](maxSize, keepWindow int) *ProximityStore[T] {
	return &ProximityStore[T]{
		entries:    make(map[int]T),
		maxSize:    maxSize,
		keepWindow: keepWindow,
	}
}

// Get returns the cached value for index.
func (c *ProximityStore[T]) Get(index int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[index]
	return v, ok
}

// Has reports whether index is cached.
func (c *ProximityStore[T]) Has(index int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[index]
	return ok
}

// Put stores value at index, replacing any older value.
func (c *ProximityStore[T]) Put(index int, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[index] = value
}

// Len returns the number of entries in the store.
func (c *ProximityStore[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Evict removes entries outside [anchor-keepWindow, anchor+keepWindow] when
// the store is over capacity. Returns the number of removed entries.
func (c *ProximityStore[T]) Evict(anchor int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) <= c.maxSize {
		return 0
	}

	lo, hi := anchor-c.keepWindow, anchor+c.keepWindow
	removed := 0
	for index := range c.entries {
		if index < lo || index > hi {
			delete(c.entries, index)
			removed++
		}
	}
	return removed
}

// Keys returns the cached indices in ascending order.
func (c *ProximityStore[T]) Keys() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]int, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

var _ contracts.ItemStore[string] = (*ProximityStore[string])(nil)
