package session

import (
	"context"
	"sync"
)

// Well-known keys shared by the dashboard and the login flow.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store persists small string values such as the bearer token and the
// serialized analyst record.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

type scoped struct {
	inner  Store
	prefix string
}

// Scoped namespaces every key of inner under id, so one backing store can
// hold many browser sessions.
func Scoped(inner Store, id string) Store {
	return &scoped{inner: inner, prefix: id + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Clear(ctx context.Context, key string) error {
	return s.inner.Clear(ctx, s.prefix+key)
}
