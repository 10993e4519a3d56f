package app

import (
	"context"
	"fmt"

	"github.com/longkidkoolstar/jsonviewer/internal/config"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
	"github.com/longkidkoolstar/jsonviewer/internal/redis"
	"github.com/longkidkoolstar/jsonviewer/internal/store"
	"github.com/longkidkoolstar/jsonviewer/internal/store/file"
	"github.com/longkidkoolstar/jsonviewer/internal/store/memory"
	redisstore "github.com/longkidkoolstar/jsonviewer/internal/store/redis"
	"github.com/longkidkoolstar/jsonviewer/internal/store/sqlite"
)

// openStore builds the persistence backend selected by cfg.StoreBackend.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		log.Info("using file store", logger.String("dir", cfg.DataDir))
		st, err := file.New(cfg.DataDir, log)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return st, nil

	case config.BackendSQLite:
		log.Info("using sqlite store", logger.String("path", cfg.SQLitePath))
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil

	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.OptionsFromConfig(cfg), log)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("using redis store",
			logger.String("addr", cfg.RedisAddr),
			logger.String("prefix", cfg.RedisKeyPrefix))
		return redisstore.NewStore(client, cfg.RedisKeyPrefix), nil

	case config.BackendMemory:
		log.Warn("using in-memory store, nothing survives a restart")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
