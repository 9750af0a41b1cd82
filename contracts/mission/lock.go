package mission

import "sync"

// keyedMutex provides one mutual-exclusion section per key. Entries are
// released when the last holder unlocks.
type keyedMutex struct {
	sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the section of the key and returns the function to release it.
func (m *keyedMutex) Lock(key string) func() {
	m.Mutex.Lock()
	lock := m.locks[key]
	if lock == nil {
		lock = &refMutex{}
		m.locks[key] = lock
	}
	lock.refs++
	m.Mutex.Unlock()

	lock.Lock()

	return func() {
		lock.Unlock()

		m.Mutex.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(m.locks, key)
		}
		m.Mutex.Unlock()
	}
}

// Len returns the number of keys currently held or waited on.
func (m *keyedMutex) Len() int {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	return len(m.locks)
}
