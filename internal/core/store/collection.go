// Package store holds the client-side record collections of a workspace.
//
// A Collection is a cache of server state: it is only as fresh as the last
// Refresh or the last locally applied mutation. It never fetches on its own.
package store

import (
	"sync"

	"github.com/hardwerkerz/werk/internal/core/domain"
)

// Op identifies the mutation that produced a Change.
type Op string

const (
	OpRefresh Op = "refresh"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
)

// Change is delivered to subscribers after every mutation.
type Change struct {
	Op  Op
	ID  string // empty for OpRefresh
	Len int    // collection size after the mutation
}

// Collection is an ordered, id-addressable list of records.
// Newly created records are prepended. Safe for concurrent use.
type Collection[T domain.Record] struct {
	mu    sync.RWMutex
	items []T

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Change)
}

// NewCollection returns an empty collection.
func NewCollection[T domain.Record]() *Collection[T] {
	return &Collection[T]{subs: make(map[int]func(Change))}
}

// Refresh replaces the whole sequence with items.
func (c *Collection[T]) Refresh(items []T) {
	c.mu.Lock()
	c.items = append(make([]T, 0, len(items)), items...)
	n := len(c.items)
	c.mu.Unlock()

	c.notify(Change{Op: OpRefresh, Len: n})
}

// ApplyCreate prepends item.
func (c *Collection[T]) ApplyCreate(item T) {
	c.mu.Lock()
	c.items = append([]T{item}, c.items...)
	n := len(c.items)
	c.mu.Unlock()

	c.notify(Change{Op: OpCreate, ID: item.RecordID(), Len: n})
}

// ApplyUpdate replaces the entry whose id matches item. It reports false and
// leaves the collection untouched when no entry matches.
func (c *Collection[T]) ApplyUpdate(item T) bool {
	id := item.RecordID()

	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.items[i] = item
	n := len(c.items)
	c.mu.Unlock()

	c.notify(Change{Op: OpUpdate, ID: id, Len: n})
	return true
}

// ApplyDelete removes the entry with the given id. Removing an absent id is a
// no-op and reports false.
func (c *Collection[T]) ApplyDelete(id string) bool {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	n := len(c.items)
	c.mu.Unlock()

	c.notify(Change{Op: OpDelete, ID: id, Len: n})
	return true
}

// Items returns a copy of the current sequence.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(make([]T, 0, len(c.items)), c.items...)
}

// Get returns the entry with the given id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Subscribe registers fn to be called after each mutation. fn runs on the
// mutating goroutine after the collection lock is released. The returned
// function removes the subscription.
func (c *Collection[T]) Subscribe(fn func(Change)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// indexOf must be called with mu held.
func (c *Collection[T]) indexOf(id string) int {
	for i, item := range c.items {
		if item.RecordID() == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) notify(ch Change) {
	c.subMu.Lock()
	fns := make([]func(Change), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}
