// Package redis stores documents as plain string values in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/longkidkoolstar/jsonviewer/internal/store"
)

// Store handles Redis operations for session documents. Documents never expire.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// NewStore wraps client. An empty prefix uses DefaultKeyPrefix.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Load(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, DocKey(s.prefix, key)).Bytes()
	if errors.Is(err, redis.Nil) {
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
	if err := s.client.Set(ctx, DocKey(s.prefix, key), data, 0).Err(); err != nil {
		return store.WriteError(key, err)
	}
	return nil
}

// maxTxAttempts bounds the optimistic retries of Update.
const maxTxAttempts = 5

// Update watches the key and commits fn's value in a MULTI block, retrying
// when another writer got there first.
func (s *Store) Update(ctx context.Context, key string, fn store.UpdateFunc) error {
	rk := DocKey(s.prefix, key)
	txf := func(tx *redis.Tx) error {
		load := func(dst any) (bool, error) {
			data, err := tx.Get(ctx, rk).Bytes()
			if errors.Is(err, redis.Nil) {
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
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, data, 0)
			return nil
		})
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			return store.WriteError(key, err)
		}
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, rk)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return store.WriteError(key, fmt.Errorf("key kept changing, gave up after %d attempts", maxTxAttempts))
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
