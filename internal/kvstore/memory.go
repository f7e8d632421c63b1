package kvstore

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-memory Store for tests and single-node deployments.
type Memory struct {
	mu    sync.Mutex
	bools map[string]bool
	ints  map[string]int64
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		bools: make(map[string]bool),
		ints:  make(map[string]int64),
	}
}

func (m *Memory) GetBool(ctx context.Context, key string) (bool, bool, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.bools[key]
	return v, ok, nil
}

func (m *Memory) SetBool(ctx context.Context, key string, v bool) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bools[key] = v
	return nil
}

func (m *Memory) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.ints[key]
	return v, ok, nil
}

func (m *Memory) SetInt64(ctx context.Context, key string, v int64) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ints[key] = v
	return nil
}

func (m *Memory) Increment(ctx context.Context, key string) (int64, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ints[key]++
	return m.ints[key], nil
}

func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.bools, k)
		delete(m.ints, k)
	}
	return nil
}

func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.bools {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	for k := range m.ints {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

var _ Store = (*Memory)(nil)
