// Package repository holds the durable backends for the habit collection.
// Every backend stores one opaque JSON document under one namespaced key.
package repository

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound means nothing has been stored under the key yet.
var ErrNotFound = errors.New("record not found")

type MemoryRepository struct {
	mu   sync.Mutex
	key  string
	data map[string][]byte
}

func NewMemoryRepository(key string) *MemoryRepository {
	return &MemoryRepository{key: key, data: make(map[string][]byte)}
}

func (r *MemoryRepository) Backend() string { return "memory" }

func (r *MemoryRepository) Load(_ context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.data[r.key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (r *MemoryRepository) Save(_ context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[r.key] = append([]byte(nil), data...)
	return nil
}

func (r *MemoryRepository) Ping(_ context.Context) error { return nil }
