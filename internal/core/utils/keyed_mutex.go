package utils

import (
	"fmt"
	"sync"
)

// KeyedMutex serializes writers per aggregate key. Entries are created on
// first lock and removed once no goroutine holds or waits on the key, so the
// map only grows with concurrent contention, bounded by maxSize.
type KeyedMutex struct {
	edit    sync.Mutex
	waiters map[string]int
	mutexes map[string]*sync.Mutex
	maxSize int
}

func NewKeyedMutex(maxSize int) KeyedMutex {
	return KeyedMutex{
		waiters: make(map[string]int),
		mutexes: make(map[string]*sync.Mutex),
		maxSize: maxSize,
	}
}

func (m *KeyedMutex) Lock(key string) error {
	m.edit.Lock()

	if m.mutexes[key] == nil {
		if len(m.mutexes) >= m.maxSize {
			m.edit.Unlock()
			return fmt.Errorf("max size reached")
		}

		m.mutexes[key] = &sync.Mutex{}
		m.waiters[key] = 0
	}

	m.waiters[key]++
	m.edit.Unlock()

	m.mutexes[key].Lock()

	return nil
}

func (m *KeyedMutex) Unlock(key string) error {
	m.edit.Lock()

	if m.mutexes[key] == nil {
		m.edit.Unlock()
		return fmt.Errorf("key %s not found", key)
	}

	m.mutexes[key].Unlock()
	m.waiters[key]--

	if m.waiters[key] == 0 {
		delete(m.mutexes, key)
		delete(m.waiters, key)
	}

	m.edit.Unlock()

	return nil
}
