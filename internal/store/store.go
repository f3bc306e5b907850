package store

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/poku-e/whisk/internal/recipe"
)

// Slot names, shared with pages written before the server existed.
const (
	RecipesKey = "whisk_recipes"
	ThemeKey   = "kawaiiTheme"
)

// Store reads and writes the whole recipe list as one JSON slot.
type Store struct {
	kv     KV
	key    string
	logger *log.Logger
}

func New(kv KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{kv: kv, key: RecipesKey, logger: logger}
}

// Load returns the persisted list. A missing, unreadable or undecodable slot
// yields an empty list; the problem is logged and never returned.
func (s *Store) Load() []recipe.Recipe {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.logger.Printf("store: read %q: %v", s.key, err)
		return []recipe.Recipe{}
	}
	if !ok || raw == "" {
		return []recipe.Recipe{}
	}
	var list []recipe.Recipe
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.logger.Printf("store: decode %q: %v", s.key, err)
		return []recipe.Recipe{}
	}
	if list == nil {
		list = []recipe.Recipe{}
	}
	return list
}

// Save overwrites the slot with list in a single Set.
func (s *Store) Save(list []recipe.Recipe) error {
	if list == nil {
		list = []recipe.Recipe{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode recipes: %w", err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("write recipes: %w", err)
	}
	return nil
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open builds the KV backend named by backend. The returned close func is
// never nil.
func Open(backend, path string) (KV, func() error, error) {
	noop := func() error { return nil }
	switch backend {
	case BackendMemory:
		return NewMemoryKV(), noop, nil
	case BackendFile:
		kv, err := NewFileKV(path)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case BackendSQLite:
		kv, err := OpenSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown backend %q", backend)
	}
}
