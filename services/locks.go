package services

import "sync"

// keyedMutex serializes work per key. Entries are reference counted and
// dropped when the last holder releases, so the map does not grow with the
// number of documents ever touched.
type keyedMutex struct {
	mu   sync.Mutex
	held map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{held: make(map[string]*lockEntry)}
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.held[key]
	if !ok {
		e = &lockEntry{}
		k.held[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	e := k.held[key]
	e.refs--
	if e.refs == 0 {
		delete(k.held, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
