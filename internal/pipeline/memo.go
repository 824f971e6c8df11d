package pipeline

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo caches successful results by key for the life of the process.
// Concurrent first calls for the same key share one computation. Failures are
// not stored, so the next Get retries.
type Memo[T any] struct {
	mu     sync.RWMutex
	values map[string]T
	group  singleflight.Group
}

// Get returns the cached value for key, computing it with fn on a miss.
func (m *Memo[T]) Get(key string, fn func() (T, error)) (T, error) {
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.RLock()
		v, ok := m.values[key]
		m.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, err := fn()
		if err != nil {
			return v, err
		}

		m.mu.Lock()
		if m.values == nil {
			m.values = make(map[string]T)
		}
		m.values[key] = v
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Peek returns the cached value for key without computing it.
func (m *Memo[T]) Peek(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Invalidate drops the cached value for key.
func (m *Memo[T]) Invalidate(key string) {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	m.group.Forget(key)
}
