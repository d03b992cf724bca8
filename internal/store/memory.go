package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process store used for tests and dry runs. Documents are kept as
// encoded JSON so callers never share mutable state with it.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// FailSaves makes every Save return this error when set.
	FailSaves error
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Load(ctx context.Context, key string, dst any) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	m.mu.RLock()
	raw, ok := m.docs[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Save(ctx context.Context, key string, v any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves != nil {
		return m.FailSaves
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m.docs[key] = raw
	return nil
}

// SetFailSaves toggles save failures safely while other goroutines use the store.
func (m *Memory) SetFailSaves(err error) {
	m.mu.Lock()
	m.FailSaves = err
	m.mu.Unlock()
}

func (m *Memory) Close() error { return nil }
