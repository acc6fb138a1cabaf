package utils

import (
	"fmt"
	"sync"
)

// MutexMap hands out one lock per key. Callers using the same key run one at a
// time while different keys proceed independently. A key's lock is dropped once
// nobody holds or waits on it, so the map only grows with live keys. A maxSize
// of zero or less means no limit.
type MutexMap[K comparable] struct {
	edit    sync.Mutex
	waiters map[K]int
	mutexes map[K]*sync.Mutex
	maxSize int
}

func NewMutexMap[K comparable](maxSize int) *MutexMap[K] {
	return &MutexMap[K]{
		waiters: make(map[K]int),
		mutexes: make(map[K]*sync.Mutex),
		maxSize: maxSize,
	}
}

func (m *MutexMap[K]) Lock(key K) error {
	m.edit.Lock()

	mu, ok := m.mutexes[key]
	if !ok {
		if m.maxSize > 0 && len(m.mutexes) >= m.maxSize {
			m.edit.Unlock()
			return fmt.Errorf("too many keys locked at once (max %d)", m.maxSize)
		}
		mu = &sync.Mutex{}
		m.mutexes[key] = mu
	}
	m.waiters[key]++

	m.edit.Unlock()

	mu.Lock()
	return nil
}

func (m *MutexMap[K]) Unlock(key K) error {
	m.edit.Lock()
	defer m.edit.Unlock()

	mu, ok := m.mutexes[key]
	if !ok {
		return fmt.Errorf("key %v is not locked", key)
	}

	mu.Unlock()
	m.waiters[key]--

	if m.waiters[key] == 0 {
		delete(m.mutexes, key)
		delete(m.waiters, key)
	}
	return nil
}

// WithLock runs fn while holding the lock for key.
func (m *MutexMap[K]) WithLock(key K, fn func()) error {
	if err := m.Lock(key); err != nil {
		return err
	}
	defer m.Unlock(key) //nolint:errcheck

	fn()
	return nil
}
