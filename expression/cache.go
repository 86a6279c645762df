package expression

import "sync"

type cacheKey struct {
	raw string
	bt  BindingType
}

// Cache memoizes parsed expressions by source text and binding type.
// Expressions are stateless, so one parsed tree is shared by every binding
// created from the same source.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]Expression
}

func NewCache() *Cache {
	return &Cache{entries: map[cacheKey]Expression{}}
}

// DefaultCache is the process wide cache used by Parse.
var DefaultCache = NewCache()

// Parse parses raw through DefaultCache.
func Parse(raw string, bt BindingType) (Expression, error) {
	return DefaultCache.Parse(raw, bt)
}

// Parse returns the cached tree for (raw, bt), parsing it on first use.
// Failed parses are not cached.
func (c *Cache) Parse(raw string, bt BindingType) (Expression, error) {
	k := cacheKey{raw: raw, bt: bt}
	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}
	e, err := ParseExpression(raw, bt)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if existing, ok := c.entries[k]; ok {
		e = existing
	} else {
		c.entries[k] = e
	}
	c.mu.Unlock()
	return e, nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// MustParse is Parse for sources known at compile time.
func MustParse(raw string, bt BindingType) Expression {
	e, err := Parse(raw, bt)
	if err != nil {
		panic(err)
	}
	return e
}
