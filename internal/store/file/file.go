// Package file stores each document as <dir>/<key>.json. Writes go through
// a temp file and a rename. An flock on <dir>/.lock serialises writers across
// processes (a running server and a CLI invocation); Update keeps it for the
// whole read-modify-write.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"

	"github.com/longkidkoolstar/jsonviewer/internal/logger"
	"github.com/longkidkoolstar/jsonviewer/internal/store"
)

const (
	lockFile      = ".lock"
	lockRetry     = 25 * time.Millisecond
	lockTimeout   = 5 * time.Second
	filePerm      = 0o600
	directoryPerm = 0o700
)

// Store is a directory of JSON files.
type Store struct {
	dir    string
	mu     sync.Mutex // flock does not exclude goroutines sharing one handle
	lock   *flock.Flock
	logger logger.Logger
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string, log logger.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("file store: data dir is required")
	}
	if err := os.MkdirAll(dir, directoryPerm); err != nil {
		return nil, fmt.Errorf("file store: create %s: %w", dir, err)
	}
	return &Store{
		dir:    dir,
		lock:   flock.New(filepath.Join(dir, lockFile)),
		logger: log,
	}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) Load(ctx context.Context, key string, dst any) (bool, error) {
	unlock, err := s.acquire(ctx, false)
	if err != nil {
		return false, store.ReadError(key, err)
	}
	data, err := os.ReadFile(s.path(key))
	unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, store.ReadError(key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, store.ReadError(key, err)
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return store.WriteError(key, err)
	}

	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return store.WriteError(key, err)
	}
	defer unlock()

	if err := writeAtomic(s.path(key), data); err != nil {
		return store.WriteError(key, err)
	}
	s.logger.Debug("document saved",
		logger.String("key", key),
		logger.Int("bytes", len(data)))
	return nil
}

func (s *Store) Update(ctx context.Context, key string, fn store.UpdateFunc) error {
	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return store.WriteError(key, err)
	}
	defer unlock()

	load := func(dst any) (bool, error) {
		data, err := os.ReadFile(s.path(key))
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, store.ReadError(key, err)
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
	if err := writeAtomic(s.path(key), data); err != nil {
		return store.WriteError(key, err)
	}
	s.logger.Debug("document updated",
		logger.String("key", key),
		logger.Int("bytes", len(data)))
	return nil
}

// acquire takes the shared (read) or exclusive (write) lock within lockTimeout.
func (s *Store) acquire(ctx context.Context, exclusive bool) (func(), error) {
	s.mu.Lock()
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = s.lock.TryLockContext(ctx, lockRetry)
	} else {
		ok, err = s.lock.TryRLockContext(ctx, lockRetry)
	}
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("lock %s: not acquired", s.lock.Path())
	}

	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release data lock", logger.Error(err))
		}
		s.mu.Unlock()
	}, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Ping checks that the directory is still writable.
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) Close() error {
	return s.lock.Close()
}
