package forecast

import (
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry keeps loaded models by path for the life of the process.
// Failed loads are not kept.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
	group  singleflight.Group
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]Model)}
}

// Load returns the model at path, reading the artifact on first use.
func (r *Registry) Load(path string) (Model, error) {
	key := registryKey(path)

	r.mu.RLock()
	m, ok := r.models[key]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		m, err := LoadModel(path)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.models[key] = m
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Model), nil
}

// Invalidate forgets the model at path.
func (r *Registry) Invalidate(path string) {
	key := registryKey(path)
	r.mu.Lock()
	delete(r.models, key)
	r.mu.Unlock()
	r.group.Forget(key)
}

// Len returns the number of loaded models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

func registryKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
