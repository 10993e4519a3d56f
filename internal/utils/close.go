package utils

import (
	"io"

	"github.com/longkidkoolstar/jsonviewer/internal/logger"
)

// MustClose closes c and logs any error under what.
func MustClose(c io.Closer, log logger.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("what", what), logger.Error(err))
	}
}

// DrainAndClose discards up to limit unread bytes and closes rc so the
// underlying HTTP connection can be reused.
func DrainAndClose(rc io.ReadCloser, limit int64) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, limit))
	_ = rc.Close()
}
