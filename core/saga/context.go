package saga

import "sync"

// Context is the mutable state shared by the steps of one saga run. Steps
// write the data their compensations need to undo them. The orchestrator
// runs steps sequentially, but the map is guarded so steps may hand it to
// short-lived goroutines.
type Context struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewContext builds a Context seeded with a copy of initial.
func NewContext(initial map[string]any) *Context {
	data := make(map[string]any, len(initial))
	for k, v := range initial {
		data[k] = v
	}
	return &Context{data: data}
}

func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// Get returns the value for key, or nil when absent.
func (c *Context) Get(key string) any {
	v, _ := c.Lookup(key)
	return v
}

func (c *Context) Lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *Context) Has(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Snapshot returns a shallow copy of the current data, safe to persist or
// mutate at the top level without affecting the live context.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}
