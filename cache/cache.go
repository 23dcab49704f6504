package cache

import (
	"fmt"
	"sync"

	"github.com/xhhuango/json"
)

// Store memoizes results of the engine's pure computations. At most one value
// is retained per key; two goroutines racing on the same key may both compute,
// which is harmless since every cached computation is idempotent.
type Store struct {
	mu      sync.RWMutex
	entries map[string]interface{}
}

func New() *Store {
	return &Store{entries: make(map[string]interface{})}
}

// Key builds a canonical cache key from a component name and that component's
// full input. Inputs are value types, so their JSON encoding is canonical.
func Key(component string, input interface{}) (string, error) {
	enc, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("encoding cache key for %s: %w", component, err)
	}
	return component + ":" + string(enc), nil
}

// GetOrCompute returns the cached value for key, running compute and storing
// its result on a miss. A compute error is returned as-is and nothing is
// cached.
func (s *Store) GetOrCompute(key string, compute func() (interface{}, error)) (interface{}, error) {
	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if prev, ok := s.entries[key]; ok {
		v = prev // lost the race, keep the first result
	} else {
		s.entries[key] = v
	}
	s.mu.Unlock()
	return v, nil
}

// Evict drops one key; recomputation after eviction is acceptable.
func (s *Store) Evict(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len reports how many entries are currently retained.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
