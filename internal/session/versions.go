package session

import (
	"context"
	"strings"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
)

// VersionDiff compares the two selected versions.
type VersionDiff struct {
	Newer      domain.Version `json:"newer"`
	Older      domain.Version `json:"older"`
	NewerIndex int            `json:"newerIndex"`
	OlderIndex int            `json:"olderIndex"`
	Text       string         `json:"diff"`
}

// Versions returns the history of url (the current URL when empty).
func (c *Controller) Versions(url string) []domain.Version {
	s := c.Snapshot()
	url = strings.TrimSpace(url)
	if url == "" {
		url = s.CurrentURL
	}
	return s.Versions.For(url)
}

// SelectVersions selects two distinct versions of the current URL for Diff.
func (c *Controller) SelectVersions(i, j int) (Selection, error) {
	if i == j {
		return Selection{}, domain.Validationf("select two different versions")
	}

	sel := newSelection(i, j)
	_, err := c.tryPublish(func(s Snapshot) (Snapshot, error) {
		if n := len(s.History()); i < 0 || j < 0 || i >= n || j >= n {
			return s, domain.Validationf("version index out of range: history has %d versions", n)
		}
		s.Selection = &sel
		return s, nil
	})
	if err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// ClearSelection drops the version selection.
func (c *Controller) ClearSelection() {
	c.publish(func(s Snapshot) Snapshot {
		s.Selection = nil
		return s
	})
}

// Diff compares the selected versions.
func (c *Controller) Diff() (VersionDiff, error) {
	s := c.Snapshot()
	if s.Selection == nil {
		return VersionDiff{}, domain.Validationf("select two versions to compare")
	}
	return diffAt(s.History(), *s.Selection)
}

func diffAt(history []domain.Version, sel Selection) (VersionDiff, error) {
	if sel.Older >= len(history) || sel.Newer < 0 {
		return VersionDiff{}, domain.Validationf("selection no longer matches the history")
	}
	newer, older := history[sel.Newer], history[sel.Older]
	return VersionDiff{
		Newer:      newer,
		Older:      older,
		NewerIndex: sel.Newer,
		OlderIndex: sel.Older,
		Text:       domain.Diff(older.Data, newer.Data),
	}, nil
}

// RestoreVersion loads a past version into the current document and edit
// buffer. Nothing is pushed or persisted.
func (c *Controller) RestoreVersion(_ context.Context, index int) (domain.Version, error) {
	done, err := c.begin("restore version")
	if err != nil {
		return domain.Version{}, err
	}
	defer done()

	history := c.Snapshot().History()
	if index < 0 || index >= len(history) {
		return domain.Version{}, domain.Validationf("version index %d out of range: history has %d versions", index, len(history))
	}
	v := history[index]

	c.publish(func(s Snapshot) Snapshot {
		s.Current = v.Data
		s.Buffer = bufferFor(v.Data)
		s.Dirty = true
		return s
	})
	c.logger.Info("version restored", logger.Int("index", index), logger.Uint64("seq", v.Seq))
	return v, nil
}

// Edit replaces the edit buffer. Valid JSON becomes the current document;
// invalid text is kept in the buffer with the parse error and the current
// document is left as it was.
func (c *Controller) Edit(text string) (EditBuffer, error) {
	done, err := c.begin("edit")
	if err != nil {
		return EditBuffer{}, err
	}
	defer done()

	doc, perr := domain.ParseDocument([]byte(text))
	buf := EditBuffer{Text: text, Valid: perr == nil}
	if perr != nil {
		buf.Error = perr.Error()
	}

	c.publish(func(s Snapshot) Snapshot {
		s.Buffer = buf
		s.Dirty = true
		if perr == nil {
			s.Current = doc
		}
		return s
	})
	return buf, nil
}
