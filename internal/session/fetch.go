package session

import (
	"context"
	"strings"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
)

// Notices attached to fetch and update results.
const (
	NoticeNoChanges  = "no changes detected"
	NoticeNewVersion = "new version saved"
)

// FetchResult describes a completed fetch.
type FetchResult struct {
	URL             string          `json:"url"`
	Document        domain.Document `json:"document"`
	Changed         bool            `json:"changed"`
	Added           *domain.Version `json:"added,omitempty"`
	Notice          string          `json:"notice"`
	ActiveStorageID string          `json:"activeStorageId,omitempty"`
}

func notice(changed bool) string {
	if changed {
		return NoticeNewVersion
	}
	return NoticeNoChanges
}

// SetAPIKey stores the fallback API key. It is persisted immediately.
func (c *Controller) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	base := c.Snapshot()

	settings := base.Settings
	settings.APIKey = key
	if err := c.docs.SaveSettings(ctx, settings); err != nil {
		c.logger.Error("failed to persist api key", logger.Error(err))
		return err
	}

	c.publish(func(s Snapshot) Snapshot {
		s.Settings.APIKey = key
		return s
	})
	c.logger.Info("api key updated", logger.Bool("set", key != ""))
	return nil
}

// SetURL changes the URL being worked on. Nothing is fetched or persisted.
func (c *Controller) SetURL(url string) Snapshot {
	url = strings.TrimSpace(url)
	return c.publish(func(s Snapshot) Snapshot {
		s.CurrentURL = url
		return s
	})
}

// Fetch retrieves url (or the current URL when empty) and records a new
// version if the document changed.
func (c *Controller) Fetch(ctx context.Context, url string) (FetchResult, error) {
	done, err := c.begin("fetch")
	if err != nil {
		return FetchResult{}, err
	}
	defer done()

	base := c.Snapshot()
	url = strings.TrimSpace(url)
	if url == "" {
		url = base.CurrentURL
	}

	res, commit, err := c.fetch(ctx, base, url)
	if err != nil {
		return FetchResult{}, err
	}

	active := ""
	if e, ok := base.Storages.FindByURL(url); ok {
		active = e.ID
	}
	res.ActiveStorageID = active

	c.publish(func(s Snapshot) Snapshot {
		s = commit(s)
		s.ActiveStorageID = active
		return s
	})
	return res, nil
}

// LoadStorage fetches the entry's URL, marks it accessed and makes it active.
func (c *Controller) LoadStorage(ctx context.Context, id string) (FetchResult, error) {
	done, err := c.begin("load storage")
	if err != nil {
		return FetchResult{}, err
	}
	defer done()

	base := c.Snapshot()
	entry, ok := base.Storages.Get(id)
	if !ok {
		return FetchResult{}, notFound(id)
	}

	res, commit, err := c.fetch(ctx, base, entry.URL)
	if err != nil {
		return FetchResult{}, err
	}

	now := c.now()
	storages, err := c.updateStorages(ctx, func(stored domain.Registry) (domain.Registry, error) {
		next, _, err := stored.Touch(id, now)
		return next, err
	})
	if err != nil {
		return FetchResult{}, err
	}
	res.ActiveStorageID = id

	c.publish(func(s Snapshot) Snapshot {
		s = commit(s)
		s.Storages = storages
		s.ActiveStorageID = id
		return s
	})
	c.logger.Info("storage loaded", logger.String("id", id), logger.String("name", entry.Name))
	return res, nil
}

// fetch performs the GET, reconciles the history and persists it with the
// settings. Nothing is published; the returned commit applies the result.
func (c *Controller) fetch(ctx context.Context, base Snapshot, url string) (FetchResult, func(Snapshot) Snapshot, error) {
	doc, ep, err := c.client.Fetch(ctx, url, base.Settings.APIKey)
	if err != nil {
		c.logger.Warn("fetch failed", logger.String("kind", domain.KindOf(err)), logger.Error(err))
		return FetchResult{}, nil, err
	}

	rec, versions, err := c.recordVersion(ctx, url, doc)
	if err != nil {
		return FetchResult{}, nil, err
	}

	settings := domain.Settings{APIKey: ep.APIKey, URL: url}
	if err := c.docs.SaveSettings(ctx, settings); err != nil {
		c.logger.Error("failed to persist settings", logger.Error(err))
		return FetchResult{}, nil, err
	}

	res := FetchResult{
		URL:      url,
		Document: doc,
		Changed:  rec.Changed,
		Added:    rec.Added,
		Notice:   notice(rec.Changed),
	}
	c.logger.Info("document fetched",
		logger.String("url", ep.Redacted()),
		logger.Bool("changed", rec.Changed),
		logger.Int("versions", len(rec.Versions)))

	commit := func(s Snapshot) Snapshot {
		s.Settings = settings
		s.Versions = versions
		s.CurrentURL = url
		s.Current = doc
		s.Buffer = bufferFor(doc)
		s.Dirty = false
		s.Selection = nil
		return s
	}
	return res, commit, nil
}

// recordVersion reconciles doc against the persisted history of url, not
// the in-memory one, so versions written by another process sharing the
// store are kept. The returned history is the whole persisted map.
func (c *Controller) recordVersion(ctx context.Context, url string, doc domain.Document) (domain.ReconcileResult, domain.VersionsByURL, error) {
	var rec domain.ReconcileResult
	versions, err := c.docs.UpdateVersions(ctx, func(stored domain.VersionsByURL) (domain.VersionsByURL, bool) {
		rec = domain.Reconcile(stored.For(url), doc, c.now(), c.newVersionID)
		if !rec.Changed {
			return stored, false
		}
		return stored.With(url, rec.Versions), true
	})
	if err != nil {
		c.logger.Error("failed to persist versions", logger.Error(err))
		return domain.ReconcileResult{}, nil, err
	}
	return rec, versions, nil
}

func notFound(id string) error {
	return &storageNotFound{id: id}
}

type storageNotFound struct{ id string }

func (e *storageNotFound) Error() string { return "storage not found: " + e.id }
func (e *storageNotFound) Unwrap() error { return domain.ErrNotFound }
