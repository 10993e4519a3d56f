package session

import (
	"context"
	"strings"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
)

// ListStorages returns saved storages, most recently accessed first.
func (c *Controller) ListStorages() []domain.StorageEntry {
	return c.Snapshot().Storages.List()
}

// SaveStorage saves the current URL under name and makes the new entry active.
func (c *Controller) SaveStorage(ctx context.Context, name string) (domain.StorageEntry, error) {
	done, err := c.begin("save storage")
	if err != nil {
		return domain.StorageEntry{}, err
	}
	defer done()

	storages, entry, err := c.createStorage(ctx, name, c.Snapshot().CurrentURL)
	if err != nil {
		return domain.StorageEntry{}, err
	}

	c.publish(func(s Snapshot) Snapshot {
		s.Storages = storages
		s.ActiveStorageID = entry.ID
		return s
	})
	return entry, nil
}

// AddStorage saves url under name without touching the active storage.
func (c *Controller) AddStorage(ctx context.Context, name, url string) (domain.StorageEntry, error) {
	done, err := c.begin("add storage")
	if err != nil {
		return domain.StorageEntry{}, err
	}
	defer done()

	storages, entry, err := c.createStorage(ctx, name, url)
	if err != nil {
		return domain.StorageEntry{}, err
	}

	c.publish(func(s Snapshot) Snapshot {
		s.Storages = storages
		return s
	})
	return entry, nil
}

func (c *Controller) createStorage(ctx context.Context, name, url string) (domain.Registry, domain.StorageEntry, error) {
	now, id := c.now(), c.newStorageID()
	var entry domain.StorageEntry
	storages, err := c.updateStorages(ctx, func(stored domain.Registry) (domain.Registry, error) {
		next, e, err := stored.Create(name, url, now, id)
		entry = e
		return next, err
	})
	if err != nil {
		return domain.Registry{}, domain.StorageEntry{}, err
	}
	c.logger.Info("storage saved",
		logger.String("id", entry.ID),
		logger.String("name", entry.Name))
	return storages, entry, nil
}

// EditStorage renames and/or retargets an entry and makes it active.
func (c *Controller) EditStorage(ctx context.Context, id string, edit domain.StorageEdit) (domain.StorageEntry, error) {
	if strings.TrimSpace(edit.Name) == "" && strings.TrimSpace(edit.URL) == "" {
		return domain.StorageEntry{}, domain.Validationf("nothing to change: name and url are both empty")
	}

	done, err := c.begin("edit storage")
	if err != nil {
		return domain.StorageEntry{}, err
	}
	defer done()

	now := c.now()
	var entry domain.StorageEntry
	storages, err := c.updateStorages(ctx, func(stored domain.Registry) (domain.Registry, error) {
		next, e, err := stored.Edit(id, edit, now)
		entry = e
		return next, err
	})
	if err != nil {
		return domain.StorageEntry{}, err
	}

	c.publish(func(s Snapshot) Snapshot {
		s.Storages = storages
		s.ActiveStorageID = id
		return s
	})
	c.logger.Info("storage edited",
		logger.String("id", id),
		logger.String("name", entry.Name))
	return entry, nil
}

// updateStorages applies fn to the persisted registry, which may hold entries
// written by another process that this snapshot has not seen yet.
func (c *Controller) updateStorages(ctx context.Context, fn func(domain.Registry) (domain.Registry, error)) (domain.Registry, error) {
	storages, err := c.docs.UpdateStorages(ctx, fn)
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindValidation, domain.KindNotFound:
		default:
			c.logger.Error("failed to persist storages", logger.Error(err))
		}
		return domain.Registry{}, err
	}
	return storages, nil
}
