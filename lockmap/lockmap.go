// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lockmap serializes work per key, typically per wallet address.
package lockmap

import "sync"

type slot struct {
	waiters int
	rw      sync.RWMutex
}

// Map holds one reader/writer lock per key in use. A key with no holders
// or waiters takes no space.
type Map[K comparable] struct {
	mu    sync.Mutex
	slots map[K]*slot
}

func New[K comparable](size int) *Map[K] {
	return &Map[K]{
		slots: make(map[K]*slot, size),
	}
}

// Acquire blocks until [key] is held, alone when [exclusive] and shared
// with other readers otherwise. The returned func releases it and must be
// called exactly once.
func (m *Map[K]) Acquire(key K, exclusive bool) func() {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{}
		m.slots[key] = s
	}
	s.waiters++
	m.mu.Unlock()

	if exclusive {
		s.rw.Lock()
	} else {
		s.rw.RLock()
	}

	var once sync.Once
	return func() {
		released := false
		once.Do(func() {
			released = true
			m.release(key, s, exclusive)
		})
		if !released {
			panic("lockmap: key released twice")
		}
	}
}

func (m *Map[K]) release(key K, s *slot, exclusive bool) {
	m.mu.Lock()
	s.waiters--
	if s.waiters == 0 {
		delete(m.slots, key)
	}
	m.mu.Unlock()

	if exclusive {
		s.rw.Unlock()
	} else {
		s.rw.RUnlock()
	}
}

// Len is the number of keys held or waited on.
func (m *Map[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.slots)
}
