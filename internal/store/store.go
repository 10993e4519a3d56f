// Package store persists the three session documents (settings, saved
// storages, version history) behind a small key/value interface.
package store

import (
	"context"
	"fmt"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
)

// Document keys.
const (
	KeySettings      = "settings"
	KeySavedStorages = "savedStorages"
	KeyVersionsByURL = "versionsByURL"
)

// Keys lists every key a Store is expected to hold.
var Keys = []string{KeySettings, KeySavedStorages, KeyVersionsByURL}

// Store is a key/value persistence backend. Values are JSON documents.
// Load reports found=false without error when the key was never written.
//
// Update is a read-modify-write of one key with no other writer in between,
// across processes for the file, sqlite and redis backends. fn reads the
// stored value through load and returns the value to save; a nil value saves
// nothing. fn may run more than once and must not call the Store itself.
type Store interface {
	Load(ctx context.Context, key string, dst any) (found bool, err error)
	Save(ctx context.Context, key string, v any) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
	Close() error
}

// LoadFunc decodes the stored value into dst.
type LoadFunc func(dst any) (found bool, err error)

// UpdateFunc computes the next value of a key from its stored value.
type UpdateFunc func(load LoadFunc) (any, error)

// WriteError wraps a backend write failure so callers can match
// domain.ErrStorageWrite.
func WriteError(key string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageWrite, key, err)
}

// ReadError describes a failure to load or decode a stored value.
func ReadError(key string, err error) error {
	return fmt.Errorf("load %s: %w", key, err)
}
