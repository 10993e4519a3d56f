package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
)

// Action is what a proposal will do once confirmed.
type Action string

const (
	ActionUpdate        Action = "update"
	ActionDeleteStorage Action = "delete-storage"
)

// Risk names the reason a proposal needs explicit confirmation.
type Risk string

const (
	RiskNone              Risk = "none"
	RiskMismatchedStorage Risk = "mismatched-storage"
	RiskDeleteActive      Risk = "delete-active"
)

// Proposal is a pending two-phase action. It is resolved by Confirm or Cancel
// and goes stale as soon as another snapshot is published.
type Proposal struct {
	Token     string    `json:"token"`
	Action    Action    `json:"action"`
	Risk      Risk      `json:"risk"`
	Message   string    `json:"message"`
	StorageID string    `json:"storageId,omitempty"`
	URL       string    `json:"url,omitempty"`
	Revision  uint64    `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
}

// NeedsConfirmation reports whether the caller must ask before confirming.
func (p Proposal) NeedsConfirmation() bool { return p.Risk != RiskNone }

// Outcome is the result of a confirmed proposal.
type Outcome struct {
	Action  Action               `json:"action"`
	Notice  string               `json:"notice"`
	Changed bool                 `json:"changed"`
	Added   *domain.Version      `json:"added,omitempty"`
	Removed *domain.StorageEntry `json:"removed,omitempty"`
}

// ProposeUpdate prepares pushing the current document to the current URL.
func (c *Controller) ProposeUpdate() (*Proposal, error) {
	s := c.Snapshot()

	url := strings.TrimSpace(s.CurrentURL)
	if url == "" {
		return nil, domain.Validationf("no url to update")
	}
	if s.Current.IsZero() {
		return nil, domain.Validationf("no document loaded")
	}
	if !s.Buffer.Valid {
		_, err := domain.ParseDocument([]byte(s.Buffer.Text))
		return nil, err
	}

	p := Proposal{
		Action:   ActionUpdate,
		Risk:     RiskNone,
		URL:      url,
		Revision: s.Revision,
		Message:  "update " + url,
	}

	adv := s.Advisory()
	if adv.Kind == domain.AdvisoryMatched && adv.Mismatch {
		p.Risk = RiskMismatchedStorage
		p.StorageID = adv.Matched.ID
		if adv.Active != nil {
			p.Message = fmt.Sprintf("url belongs to storage %q but storage %q is active; update anyway?",
				adv.Matched.Name, adv.Active.Name)
		} else {
			p.Message = fmt.Sprintf("url belongs to storage %q which is not loaded; update anyway?",
				adv.Matched.Name)
		}
	}

	return c.propose(p), nil
}

// ProposeDeleteStorage prepares removing a saved storage.
func (c *Controller) ProposeDeleteStorage(id string) (*Proposal, error) {
	s := c.Snapshot()
	entry, ok := s.Storages.Get(id)
	if !ok {
		return nil, notFound(id)
	}

	p := Proposal{
		Action:    ActionDeleteStorage,
		Risk:      RiskNone,
		StorageID: id,
		URL:       entry.URL,
		Revision:  s.Revision,
		Message:   fmt.Sprintf("delete storage %q", entry.Name),
	}
	if id == s.ActiveStorageID {
		p.Risk = RiskDeleteActive
		p.Message = fmt.Sprintf("storage %q is currently loaded; delete it?", entry.Name)
	}

	return c.propose(p), nil
}

func (c *Controller) propose(p Proposal) *Proposal {
	p.Token = uuid.NewString()
	p.CreatedAt = c.now()

	c.mu.Lock()
	for token, old := range c.proposals {
		if old.Revision != c.snap.Revision {
			delete(c.proposals, token)
		}
	}
	c.proposals[p.Token] = p
	c.mu.Unlock()

	c.logger.Debug("proposal created",
		logger.String("action", string(p.Action)),
		logger.String("risk", string(p.Risk)))
	return &p
}

// Cancel drops a proposal. Unknown tokens are ignored.
func (c *Controller) Cancel(token string) {
	c.mu.Lock()
	_, ok := c.proposals[token]
	delete(c.proposals, token)
	c.mu.Unlock()

	if ok {
		c.logger.Debug("proposal cancelled")
	}
}

// take removes the proposal for token and checks it is still current.
func (c *Controller) take(token string) (Proposal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.proposals[token]
	if !ok {
		return Proposal{}, domain.ErrUnknownConfirmation
	}
	delete(c.proposals, token)
	if p.Revision != c.snap.Revision {
		return Proposal{}, domain.ErrStaleConfirmation
	}
	return p, nil
}

// Confirm executes a proposal.
func (c *Controller) Confirm(ctx context.Context, token string) (*Outcome, error) {
	done, err := c.begin("confirm")
	if err != nil {
		return nil, err
	}
	defer done()

	p, err := c.take(token)
	if err != nil {
		return nil, err
	}

	switch p.Action {
	case ActionUpdate:
		return c.update(ctx)
	case ActionDeleteStorage:
		return c.deleteStorage(ctx, p.StorageID)
	default:
		return nil, fmt.Errorf("unknown action %q", p.Action)
	}
}

func (c *Controller) update(ctx context.Context) (*Outcome, error) {
	base := c.Snapshot()
	url := base.CurrentURL
	doc := base.Current

	ep, err := c.client.Update(ctx, url, base.Settings.APIKey, doc)
	if err != nil {
		c.logger.Warn("update failed", logger.String("kind", domain.KindOf(err)), logger.Error(err))
		return nil, err
	}

	rec, versions, err := c.recordVersion(ctx, url, doc)
	if err != nil {
		return nil, err
	}

	settings := domain.Settings{APIKey: ep.APIKey, URL: url}
	if err := c.docs.SaveSettings(ctx, settings); err != nil {
		c.logger.Error("failed to persist settings", logger.Error(err))
		return nil, err
	}

	c.publish(func(s Snapshot) Snapshot {
		s.Settings = settings
		s.Versions = versions
		s.Dirty = false
		if rec.Changed {
			s.Selection = nil
		}
		return s
	})

	c.logger.Info("document updated",
		logger.String("url", ep.Redacted()),
		logger.Bool("changed", rec.Changed))
	return &Outcome{
		Action:  ActionUpdate,
		Notice:  "document updated, " + notice(rec.Changed),
		Changed: rec.Changed,
		Added:   rec.Added,
	}, nil
}

func (c *Controller) deleteStorage(ctx context.Context, id string) (*Outcome, error) {
	base := c.Snapshot()
	entry, ok := base.Storages.Get(id)
	if !ok {
		return nil, notFound(id)
	}

	storages, err := c.updateStorages(ctx, func(stored domain.Registry) (domain.Registry, error) {
		return stored.Remove(id)
	})
	if err != nil {
		return nil, err
	}

	c.publish(func(s Snapshot) Snapshot {
		s.Storages = storages
		if s.ActiveStorageID == id {
			s.ActiveStorageID = ""
		}
		return s
	})

	c.logger.Info("storage deleted", logger.String("id", id), logger.String("name", entry.Name))
	return &Outcome{
		Action:  ActionDeleteStorage,
		Notice:  fmt.Sprintf("storage %q deleted", entry.Name),
		Removed: &entry,
	}, nil
}
