// Package scheduler runs background jobs on a ticker.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
	"github.com/longkidkoolstar/jsonviewer/internal/session"
)

// Refreshable is the part of the session controller the refresher drives.
type Refreshable interface {
	Refresh(ctx context.Context) (session.FetchResult, bool, error)
}

// Refresher periodically refetches the current document so remote changes
// show up in the history without a manual fetch.
type Refresher struct {
	target   Refreshable
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewRefresher(target Refreshable, log logger.Logger, interval time.Duration) *Refresher {
	return &Refresher{
		target:   target,
		logger:   log.With(logger.String("job", "refresh")),
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the periodic refresh. The first run happens after one interval.
func (r *Refresher) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return errors.New("refresh interval must be positive")
	}

	ticker := time.NewTicker(r.interval)
	go func() {
		defer close(r.doneCh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Refresh(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the refresher and waits for a refresh in progress to finish.
func (r *Refresher) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// Refresh runs one refresh. A busy controller is not an error: the user is
// doing something and the next tick will try again.
func (r *Refresher) Refresh(ctx context.Context) {
	res, fetched, err := r.target.Refresh(ctx)
	switch {
	case errors.Is(err, domain.ErrBusy):
		r.logger.Debug("refresh skipped, another action is in flight")
	case err != nil:
		r.logger.Warn("refresh failed",
			logger.String("kind", domain.KindOf(err)),
			logger.Error(err))
	case fetched:
		r.logger.Debug("refresh done",
			logger.Bool("changed", res.Changed))
	}
}
