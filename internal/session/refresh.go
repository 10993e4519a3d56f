package session

import (
	"context"

	"github.com/longkidkoolstar/jsonviewer/internal/logger"
)

// Refresh refetches the current URL and records a new version when the
// remote changed. It does nothing (fetched is false) when no URL is set or
// the document holds an edit or a restored version that was not pushed.
// The active storage is kept.
//
// A refresh that finds nothing new publishes nothing, so pending
// confirmations stay valid.
func (c *Controller) Refresh(ctx context.Context) (FetchResult, bool, error) {
	done, err := c.begin("refresh")
	if err != nil {
		return FetchResult{}, false, err
	}
	defer done()

	base := c.Snapshot()
	if base.CurrentURL == "" {
		return FetchResult{}, false, nil
	}
	if base.Dirty {
		c.logger.Debug("refresh skipped, document has unpushed changes")
		return FetchResult{}, false, nil
	}

	res, commit, err := c.fetch(ctx, base, base.CurrentURL)
	if err != nil {
		return FetchResult{}, false, err
	}
	res.ActiveStorageID = base.ActiveStorageID

	if next := commit(base); !res.Changed && unchanged(base, next) {
		return res, true, nil
	}

	c.publish(commit)
	if res.Changed {
		c.logger.Info("refresh found a new version", logger.Uint64("seq", res.Added.Seq))
	}
	return res, true, nil
}

// unchanged reports whether next shows the user nothing base does not.
func unchanged(base, next Snapshot) bool {
	return next.Settings == base.Settings &&
		next.Current.Equal(base.Current) &&
		next.Buffer == base.Buffer &&
		len(next.History()) == len(base.History())
}
