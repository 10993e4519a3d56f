package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/longkidkoolstar/jsonviewer/internal/httpserver"
	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
	"github.com/longkidkoolstar/jsonviewer/internal/scheduler"
	"github.com/longkidkoolstar/jsonviewer/internal/version"
)

// App serves the HTTP API over a Runtime.
type App struct {
	rt        *Runtime
	server    *httpserver.Server
	refresher *scheduler.Refresher
}

func New(rt *Runtime) *App {
	cfg := rt.Config

	d := deps.Deps{
		Logger:       rt.Logger,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Session:      rt.Controller,
		Store:        rt.Store,
		StoreBackend: cfg.StoreBackend,
	}

	a := &App{
		rt:     rt,
		server: httpserver.New(cfg, rt.Logger, d),
	}
	if cfg.RefreshInterval > 0 {
		a.refresher = scheduler.NewRefresher(rt.Controller, rt.Logger, cfg.RefreshInterval)
	}
	return a
}

// Run serves until SIGINT/SIGTERM or a server error, then shuts down and
// closes the backend.
func (a *App) Run() error {
	log := a.rt.Logger
	log.Infof("🚀 Starting jsonviewer v%s on %s", version.Version, a.rt.Config.ListenPort)
	log.Infof("jsonviewer %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.refresher != nil {
		if err := a.refresher.Start(ctx); err != nil {
			a.closeStore()
			return fmt.Errorf("failed to start refresher: %w", err)
		}
		log.Info("refresher started", logger.Duration("interval", a.rt.Config.RefreshInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.stopJobs()
		a.closeStore()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.rt.Config.ShutdownTimeout)
	defer cancel()
	err := a.server.Stop(shutdownCtx)

	a.stopJobs()
	a.closeStore()
	if err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	log.Info("✅ jsonviewer stopped cleanly")
	return nil
}

// stopJobs stops background jobs before the store goes away.
func (a *App) stopJobs() {
	if a.refresher != nil {
		a.refresher.Stop()
	}
}

func (a *App) closeStore() {
	if err := a.rt.Close(); err != nil {
		a.rt.Logger.Warn("failed to close store", logger.Error(err))
		return
	}
	a.rt.Logger.Info("✅ store closed cleanly")
}
