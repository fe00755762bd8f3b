package workflow

import "sync"

// appLocks serializes work per application id. Locks are created on demand
// and dropped once the last holder releases, so the map never grows with the
// number of historical applications.
type appLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newAppLocks() *appLocks {
	return &appLocks{entries: make(map[string]*lockEntry)}
}

// acquire blocks until the application's lock is held and returns the
// release function.
func (l *appLocks) acquire(id string) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
