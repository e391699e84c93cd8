// Package tokenstore persists the session token across process restarts.
package tokenstore

import (
	"context"
	"sync"
)

// Store persists a single session token under a fixed key.
// Load returns "" with a nil error when nothing is stored.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Memory is a process-local Store.
type Memory struct {
	mu    sync.Mutex
	token string
}

// NewMemory returns an empty in-memory store, optionally seeded with token.
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
