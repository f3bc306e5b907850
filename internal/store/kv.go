// Package store persists the recipe list in a single slot of a key-value
// backend. Backends are interchangeable: memory for tests, a directory of
// files, or a SQLite table.
package store

import (
	"sync"
)

// KV is a string key-value store with whole-value writes.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	// Set replaces the value for key in a single write.
	Set(key, value string) error
	Delete(key string) error
}

type MemoryKV struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// scopedKV namespaces every key under a client id.
type scopedKV struct {
	kv     KV
	prefix string
}

// Scoped returns a view of kv where every key lives under scope. Each
// browser client gets its own scope so one client's recipes never show up
// for another.
func Scoped(kv KV, scope string) KV {
	if scope == "" {
		return kv
	}
	return &scopedKV{kv: kv, prefix: scope + "/"}
}

func (s *scopedKV) Get(key string) (string, bool, error) { return s.kv.Get(s.prefix + key) }
func (s *scopedKV) Set(key, value string) error        { return s.kv.Set(s.prefix+key, value) }
func (s *scopedKV) Delete(key string) error            { return s.kv.Delete(s.prefix + key) }
