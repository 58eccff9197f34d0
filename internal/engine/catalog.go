package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownRelation is returned by Lookup for names never registered.
var ErrUnknownRelation = errors.New("unknown relation")

// Catalog is a set of named relations. Relations are registered once and are
// treated as read-only afterwards, so concurrent lookups need no coordination
// beyond the registration lock.
type Catalog struct {
	mu   sync.RWMutex
	rels map[string]*Frame
}

func NewCatalog() *Catalog {
	return &Catalog{rels: make(map[string]*Frame)}
}

// Register adds f under name. Registering a name twice is an error.
func (c *Catalog) Register(name string, f *Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rels[name]; ok {
		return fmt.Errorf("relation %q already registered", name)
	}
	c.rels[name] = f
	return nil
}

// Lookup returns the relation registered under name.
func (c *Catalog) Lookup(name string) (*Frame, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.rels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelation, name)
	}
	return f, nil
}

// Names returns the registered relation names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.rels))
	for n := range c.rels {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
