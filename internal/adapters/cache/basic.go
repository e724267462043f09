package cache

import (
	"runtime"
	"sync"
)

// basicCache keeps every entry for the lifetime of the process
type basicCache[T any] struct {
	mu      sync.Mutex
	entries map[string]*T
}

func (c *basicCache[T]) getOrClaim(key string) hitResult[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		// A nil entry marks the key as claimed
		c.entries[key] = nil
		return hitResult[T]{claimed: true}
	}
	if entry == nil {
		return hitResult[T]{}
	}
	return hitResult[T]{data: *entry, valid: true}
}

func (c *basicCache[T]) set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &data
}

func (c *basicCache[T]) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *basicCache[T]) wait() {
	runtime.Gosched()
}

// NewBasicCache never expires entries. Used for short runs and tests.
func NewBasicCache[T any]() *basicCache[T] {
	return &basicCache[T]{
		entries: make(map[string]*T),
	}
}
