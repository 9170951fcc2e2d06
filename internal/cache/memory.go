package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/aula-go-api/internal/observability"
)

type memoryItem struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Values are held as JSON so readers
// never share memory with writers.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryStore creates an empty in-process cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()

	if ok && !item.expiresAt.IsZero() && !s.now().Before(item.expiresAt) {
		s.mu.Lock()
		if current, still := s.items[key]; still && current.expiresAt.Equal(item.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		ok = false
	}

	if !ok {
		observability.CacheLookups().WithLabelValues("memory", "miss").Inc()
		return false, nil
	}

	if err := json.Unmarshal(item.payload, dest); err != nil {
		observability.CacheLookups().WithLabelValues("memory", "error").Inc()
		return false, fmt.Errorf("decode cache key %s: %w", key, err)
	}

	observability.CacheLookups().WithLabelValues("memory", "hit").Inc()
	return true, nil
}

// Set stores value under key. A ttl of zero keeps it until invalidated.
func (s *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache key %s: %w", key, err)
	}

	item := memoryItem{payload: payload}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.items[key] = item
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.items, key)
	}
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored keys, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
