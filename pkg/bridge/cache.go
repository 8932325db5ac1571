// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"sync"

	"rulecraft/pkg/rkey"
)

// subclassKey is the cache key for an IsSubclass answer.
type subclassKey struct {
	typeID     rkey.TypeID
	constraint rkey.TypeConstraint
}

// CachedBridge wraps a Bridge and memoizes IsSubclass answers for the
// lifetime of the wrapper, per §4.1: "Subclass answers are cached for the
// lifetime of the bridge instance." The cache never evicts — the host's
// subclass relation is assumed not to change while a bridge instance is in
// use. All other operations pass through unchanged.
//
// The cache is the only mutable state inside the core's boundary; it uses
// a plain mutex rather than an atomic map because issubclass answers are
// cheap to recompute on a cache miss and writes are rare relative to reads.
type CachedBridge struct {
	inner Bridge

	mu    sync.RWMutex
	cache map[subclassKey]bool
}

// NewCachedBridge wraps inner with a subclass-answer cache.
func NewCachedBridge(inner Bridge) *CachedBridge {
	return &CachedBridge{
		inner: inner,
		cache: make(map[subclassKey]bool),
	}
}

// IsSubclass answers from cache when possible, otherwise delegates to the
// wrapped Bridge and remembers the answer.
func (c *CachedBridge) IsSubclass(typeID rkey.TypeID, constraint rkey.TypeConstraint) bool {
	key := subclassKey{typeID: typeID, constraint: constraint}

	c.mu.RLock()
	answer, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return answer
	}

	answer = c.inner.IsSubclass(typeID, constraint)

	c.mu.Lock()
	c.cache[key] = answer
	c.mu.Unlock()
	return answer
}

// Project delegates to the wrapped Bridge.
func (c *CachedBridge) Project(value rkey.Key, field rkey.Field) rkey.Key {
	return c.inner.Project(value, field)
}

// ProjectMulti delegates to the wrapped Bridge.
func (c *CachedBridge) ProjectMulti(value rkey.Key, field rkey.Field) []rkey.Key {
	return c.inner.ProjectMulti(value, field)
}

// StoreList delegates to the wrapped Bridge.
func (c *CachedBridge) StoreList(items []rkey.Key) rkey.Key {
	return c.inner.StoreList(items)
}

// ToStr delegates to the wrapped Bridge.
func (c *CachedBridge) ToStr(digest rkey.Digest) string {
	return c.inner.ToStr(digest)
}

var _ Bridge = (*CachedBridge)(nil)
