package app

import "sync"

// keyedLocks serializes mutating operations per key. Room codes use one
// instance so concurrent events for the same room cannot race their
// load-modify-save cycles; stats tokens use another so a token seated in
// two rooms latching at once cannot drop a counter increment.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the key and returns its unlock func.
func (l *keyedLocks) acquire(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
