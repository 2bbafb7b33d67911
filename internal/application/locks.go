package application

import "sync"

// ResourceLockSet serializes read-then-write sequences per resource so two
// concurrent requests cannot both pass an availability check and commit
// overlapping reservations. The reservation service and the resource cascade
// must share one set; otherwise a reservation can commit against a resource
// whose cascade is concurrently cancelling the calendar.
type ResourceLockSet struct {
	mu    sync.Mutex
	locks map[string]*resourceLock
}

type resourceLock struct {
	mu   sync.Mutex
	refs int
}

// NewResourceLockSet returns an empty lock set.
func NewResourceLockSet() *ResourceLockSet {
	return &ResourceLockSet{locks: make(map[string]*resourceLock)}
}

// Lock acquires the mutex for the given resource ID, creating it on first
// use. The returned function releases the mutex and drops the entry once no
// goroutine holds or awaits it.
func (l *ResourceLockSet) Lock(resourceID string) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[resourceID]
	if !ok {
		entry = &resourceLock{}
		l.locks[resourceID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, resourceID)
		}
		l.mu.Unlock()
	}
}
