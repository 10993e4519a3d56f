package domain

import "strings"

// Settings holds the last-used connection parameters.
type Settings struct {
	APIKey string `json:"apiKey"`
	URL    string `json:"url"`
}

// AdvisoryKind classifies how the current URL relates to the saved storages.
type AdvisoryKind string

const (
	// AdvisoryNone: the URL matches no storage and none is active.
	AdvisoryNone AdvisoryKind = "none"
	// AdvisoryMatched: the URL matches a saved storage.
	AdvisoryMatched AdvisoryKind = "matched"
	// AdvisoryUnmatchedActive: the URL matches nothing, but a storage is marked active.
	AdvisoryUnmatchedActive AdvisoryKind = "unmatched-active"
)

// Advisory is informational state shown next to the URL; it never blocks an action.
type Advisory struct {
	Kind AdvisoryKind `json:"kind"`

	// Matched is the storage the current URL matches (AdvisoryMatched only).
	Matched *StorageEntry `json:"matched,omitempty"`

	// Active is the storage marked active, if any.
	Active *StorageEntry `json:"active,omitempty"`

	// Mismatch is true when the URL matches a storage other than the active one.
	Mismatch bool `json:"mismatch"`
}

// Advise computes the advisory for currentURL given the active storage id.
func Advise(reg Registry, currentURL, activeID string) Advisory {
	var active *StorageEntry
	if activeID != "" {
		if e, ok := reg.Get(activeID); ok {
			active = &e
		}
	}

	// An active entry pointing at the URL wins over other entries sharing it.
	if active != nil && active.URL == strings.TrimSpace(currentURL) {
		return Advisory{Kind: AdvisoryMatched, Matched: active, Active: active}
	}
	if m, ok := reg.FindByURL(currentURL); ok {
		return Advisory{
			Kind:     AdvisoryMatched,
			Matched:  &m,
			Active:   active,
			Mismatch: m.ID != activeID,
		}
	}
	if active != nil {
		return Advisory{Kind: AdvisoryUnmatchedActive, Active: active}
	}
	return Advisory{Kind: AdvisoryNone}
}
