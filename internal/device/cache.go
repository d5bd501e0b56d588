package device

// cache.go holds the last-known pin states. The cache is updated from
// device status frames and from successful control commands, and is the
// gateway's answer of last resort when the device is slow or absent.

import (
	"sync"
)

// StateCache maps pin ids (string form) to their last-known state bit.
// Values are "0" or "1"; pins the device never reported default to "0".
type StateCache struct {
	mu     sync.RWMutex
	states map[string]string
}

// NewStateCache creates an empty cache.
func NewStateCache() *StateCache {
	return &StateCache{states: make(map[string]string)}
}

// Get returns the last-known state for a pin, defaulting to "0".
func (c *StateCache) Get(pin string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if state, ok := c.states[pin]; ok {
		return state
	}
	return "0"
}

// Set records one pin state.
func (c *StateCache) Set(pin, state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[pin] = state
}

// Merge applies a device status report to the cache.
func (c *StateCache) Merge(states map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pin, state := range states {
		c.states[pin] = state
	}
}

// Snapshot returns a copy of the full cache.
func (c *StateCache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]string, len(c.states))
	for pin, state := range c.states {
		snapshot[pin] = state
	}
	return snapshot
}
