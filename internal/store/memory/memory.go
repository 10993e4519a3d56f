// Package memory is an in-process Store. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/longkidkoolstar/jsonviewer/internal/store"
)

// Store keeps encoded documents in a map.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// New creates an empty memory store.
func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

func (s *Store) Load(_ context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	data, ok := s.docs[key]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, store.ReadError(key, err)
	}
	return true, nil
}

func (s *Store) Save(_ context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return store.WriteError(key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = data
	return nil
}

// Update holds the write lock for the whole of fn.
func (s *Store) Update(_ context.Context, key string, fn store.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	load := func(dst any) (bool, error) {
		data, ok := s.docs[key]
		if !ok {
			return false, nil
		}
		if err := json.Unmarshal(data, dst); err != nil {
			return true, store.ReadError(key, err)
		}
		return true, nil
	}
	v, err := fn(load)
	if err != nil || v == nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return store.WriteError(key, err)
	}
	s.docs[key] = data
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
