package cache

import (
	"sync"
	"time"
)

// Entry holds a single value until its TTL runs out. The ledger client keeps
// exactly one grid per configured range, so no keyed storage is needed.
type Entry[T any] struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	data      T
	expiresAt time.Time
	set       bool
}

var _ Cleaner = (*Entry[int])(nil)

// NewEntry creates an empty entry whose values live for ttl.
func NewEntry[T any](ttl time.Duration) *Entry[T] {
	return &Entry[T]{ttl: ttl, now: time.Now}
}

// Get returns the value if one is stored and has not expired.
func (e *Entry[T]) Get() (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var zero T
	if !e.set {
		return zero, false
	}
	if !e.now().Before(e.expiresAt) {
		e.reset()
		return zero, false
	}
	return e.data, true
}

// Set stores data and restarts the TTL.
func (e *Entry[T]) Set(data T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = data
	e.expiresAt = e.now().Add(e.ttl)
	e.set = true
}

// Clear drops the stored value.
func (e *Entry[T]) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

// CleanExpired drops an expired value and reports how many were removed.
func (e *Entry[T]) CleanExpired() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set && !e.now().Before(e.expiresAt) {
		e.reset()
		return 1
	}
	return 0
}

func (e *Entry[T]) reset() {
	var zero T
	e.data = zero
	e.expiresAt = time.Time{}
	e.set = false
}
