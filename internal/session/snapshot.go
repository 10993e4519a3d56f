package session

import (
	"github.com/longkidkoolstar/jsonviewer/internal/domain"
)

// Snapshot is the complete session state at one revision. Snapshots are never
// modified after publication; every change produces a new one.
type Snapshot struct {
	Settings        domain.Settings
	Storages        domain.Registry
	Versions        domain.VersionsByURL
	CurrentURL      string
	Current         domain.Document
	Buffer          EditBuffer
	Dirty           bool // Current holds an edit or restore not yet pushed or refetched
	ActiveStorageID string
	Selection       *Selection
	Revision        uint64
}

// EditBuffer is the text being edited and whether it parses.
type EditBuffer struct {
	Text  string `json:"text"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func bufferFor(doc domain.Document) EditBuffer {
	if doc.IsZero() {
		return EditBuffer{}
	}
	return EditBuffer{Text: doc.Pretty(), Valid: true}
}

// Selection is a pair of distinct indices into the current URL's history.
// Newer is always the smaller index (histories are newest first).
type Selection struct {
	Newer int `json:"newer"`
	Older int `json:"older"`
}

func newSelection(i, j int) Selection {
	if i > j {
		i, j = j, i
	}
	return Selection{Newer: i, Older: j}
}

// History returns the versions of the current URL, newest first.
func (s Snapshot) History() []domain.Version {
	return s.Versions.For(s.CurrentURL)
}

// Advisory describes how the current URL relates to the saved storages.
func (s Snapshot) Advisory() domain.Advisory {
	return domain.Advise(s.Storages, s.CurrentURL, s.ActiveStorageID)
}

// ActiveStorage returns the active entry, if any.
func (s Snapshot) ActiveStorage() (domain.StorageEntry, bool) {
	if s.ActiveStorageID == "" {
		return domain.StorageEntry{}, false
	}
	return s.Storages.Get(s.ActiveStorageID)
}
