package app

import (
	"context"
	"fmt"

	"github.com/longkidkoolstar/jsonviewer/internal/config"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
	"github.com/longkidkoolstar/jsonviewer/internal/remote"
	"github.com/longkidkoolstar/jsonviewer/internal/seed"
	"github.com/longkidkoolstar/jsonviewer/internal/session"
	"github.com/longkidkoolstar/jsonviewer/internal/store"
	"github.com/longkidkoolstar/jsonviewer/internal/utils"
)

// Runtime is a loaded session over the configured backend. Both the API
// server and the one-shot CLI commands run on it.
type Runtime struct {
	Config     *config.Config
	Logger     logger.Logger
	Store      store.Store
	Controller *session.Controller
}

// Open connects the backend, restores persisted state and imports the
// storages file when one is configured.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	backend, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	ctrl := session.New(store.NewDocuments(backend), remote.New(log), log)
	if err := ctrl.Load(ctx); err != nil {
		utils.MustClose(backend, log, "store")
		return nil, fmt.Errorf("restore session: %w", err)
	}

	rt := &Runtime{Config: cfg, Logger: log, Store: backend, Controller: ctrl}
	if cfg.StoragesFile != "" {
		if _, err := rt.ImportFile(ctx, cfg.StoragesFile); err != nil {
			utils.MustClose(backend, log, "store")
			return nil, err
		}
	}
	return rt, nil
}

// ImportFile creates the storages listed in a YAML seed file.
func (rt *Runtime) ImportFile(ctx context.Context, path string) (seed.Result, error) {
	f, err := seed.NewLoader(path).Load()
	if err != nil {
		return seed.Result{}, fmt.Errorf("load storages file: %w", err)
	}
	res, err := seed.Import(ctx, rt.Controller, f.Storages, rt.Logger)
	if err != nil {
		return res, fmt.Errorf("import storages: %w", err)
	}
	rt.Logger.Info("storages file imported",
		logger.String("file", path),
		logger.Int("created", len(res.Created)),
		logger.Int("skipped", res.Skipped),
		logger.Int("invalid", res.Invalid))
	return res, nil
}

// Close releases the backend.
func (rt *Runtime) Close() error {
	return rt.Store.Close()
}
