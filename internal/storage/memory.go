package storage

import (
	"fmt"
	"sync"
)

// Memory keeps values in a map. Nothing survives the process.
type Memory struct {
	mu       sync.Mutex
	items    map[string]string
	failWith error
	closed   bool
}

func NewMemory() *Memory {
	return &Memory{items: map[string]string{}}
}

// FailWrites makes every following SetItem and RemoveItem return err.
// Pass nil to restore normal behavior.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *Memory) GetItem(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, fmt.Errorf("get %q: %w", key, ErrUnavailable)
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writable(key); err != nil {
		return err
	}
	m.items[key] = value
	return nil
}

func (m *Memory) RemoveItem(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writable(key); err != nil {
		return err
	}
	delete(m.items, key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// writable must be called with mu held.
func (m *Memory) writable(key string) error {
	if m.closed {
		return fmt.Errorf("write %q: %w", key, ErrUnavailable)
	}
	if m.failWith != nil {
		return fmt.Errorf("write %q: %w", key, m.failWith)
	}
	return nil
}
