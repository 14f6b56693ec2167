package schema

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache holds table descriptions keyed by Go type and flags. Concurrent
// first lookups of the same key build the description once; every later
// lookup returns the identical *Table.
type Cache struct {
	mu     sync.RWMutex
	tables map[cacheKey]*Table
	bound  map[reflect.Type]Flags
	group  singleflight.Group
	opts   []Option
}

type cacheKey struct {
	typ   reflect.Type
	flags Flags
}

// NewCache returns an empty cache. The options apply to every description
// it builds.
func NewCache(opts ...Option) *Cache {
	return &Cache{
		tables: make(map[cacheKey]*Table),
		bound:  make(map[reflect.Type]Flags),
		opts:   opts,
	}
}

// Describe returns the cached description of t under flags, building it on
// first use.
func (c *Cache) Describe(t reflect.Type, flags Flags) (*Table, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	key := cacheKey{typ: t, flags: flags}
	c.mu.RLock()
	tbl, ok := c.tables[key]
	c.mu.RUnlock()
	if ok {
		return tbl, nil
	}
	if t == nil {
		return nil, Errorf("", "", "nil type")
	}
	v, err, _ := c.group.Do(fmt.Sprintf("%s/%x/%d", t, reflect.ValueOf(t).Pointer(), flags), func() (any, error) {
		tbl, err := Describe(t, flags, c.opts...)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		// First writer wins.
		if prev, ok := c.tables[key]; ok {
			return prev, nil
		}
		c.tables[key] = tbl
		return tbl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Bind records flags as the ones t was created with. Later calls to Mapping
// describe t under these flags.
func (c *Cache) Bind(t reflect.Type, flags Flags) (*Table, error) {
	tbl, err := c.Describe(t, flags)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.bound[tbl.Type] = flags
	c.mu.Unlock()
	return tbl, nil
}

// Mapping returns the description of t under the flags it was bound with,
// or under def when it was never bound.
func (c *Cache) Mapping(t reflect.Type, def Flags) (*Table, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	c.mu.RLock()
	flags, ok := c.bound[t]
	c.mu.RUnlock()
	if !ok {
		flags = def
	}
	return c.Describe(t, flags)
}

// Len returns the number of cached descriptions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// Range calls fn for every cached description until fn returns false.
func (c *Cache) Range(fn func(*Table) bool) {
	c.mu.RLock()
	tables := make([]*Table, 0, len(c.tables))
	for _, t := range c.tables {
		tables = append(tables, t)
	}
	c.mu.RUnlock()
	for _, t := range tables {
		if !fn(t) {
			return
		}
	}
}

// Reset drops all cached descriptions and bindings.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[cacheKey]*Table)
	c.bound = make(map[reflect.Type]Flags)
}
