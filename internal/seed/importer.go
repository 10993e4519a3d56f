package seed

import (
	"context"
	"errors"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
)

// Target is where imported storages are created.
type Target interface {
	ListStorages() []domain.StorageEntry
	AddStorage(ctx context.Context, name, url string) (domain.StorageEntry, error)
}

// Result summarises an import.
type Result struct {
	Created []domain.StorageEntry
	Skipped int
	Invalid int
}

// Import creates every entry whose (name, url) pair is not saved yet. Invalid
// entries are logged and skipped; any other error stops the import.
func Import(ctx context.Context, target Target, entries []Entry, log logger.Logger) (Result, error) {
	type pair struct{ name, url string }
	existing := make(map[pair]bool)
	for _, e := range target.ListStorages() {
		existing[pair{e.Name, e.URL}] = true
	}

	var res Result
	for _, e := range entries {
		key := pair{e.Name, e.URL}
		if existing[key] {
			res.Skipped++
			continue
		}

		created, err := target.AddStorage(ctx, e.Name, e.URL)
		if errors.Is(err, domain.ErrValidation) {
			log.Warn("skipping invalid storage entry",
				logger.String("name", e.Name),
				logger.Error(err))
			res.Invalid++
			continue
		}
		if err != nil {
			return res, err
		}

		existing[key] = true
		res.Created = append(res.Created, created)
	}

	log.Info("storages imported",
		logger.Int("created", len(res.Created)),
		logger.Int("skipped", res.Skipped),
		logger.Int("invalid", res.Invalid))
	return res, nil
}
