package pipeline

import "sync"

// KeyMutex serializes work per key so concurrent activations of the same
// store never interleave, while different stores proceed in parallel.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*keyLock)}
}

// Lock acquires the mutex for key, blocking until it is free
func (k *KeyMutex) Lock(key string) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &keyLock{}
		k.locks[key] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.mu.Lock()
}

// Unlock releases the mutex for key, dropping it once no waiters remain
func (k *KeyMutex) Unlock(key string) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		return
	}
	lock.refs--
	if lock.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	lock.mu.Unlock()
}

// TryLock acquires the mutex for key without blocking. Returns false when
// another holder has it.
func (k *KeyMutex) TryLock(key string) bool {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &keyLock{}
		k.locks[key] = lock
	}
	if !lock.mu.TryLock() {
		k.mu.Unlock()
		return false
	}
	lock.refs++
	k.mu.Unlock()
	return true
}
