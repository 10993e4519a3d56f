package domain

import "time"

// Version is an immutable snapshot of a Document fetched from or pushed to a URL.
type Version struct {
	// ID is a random unique identifier, independent of the clock.
	ID string `json:"id,omitempty"`

	// Seq is strictly increasing within a URL's history.
	Seq uint64 `json:"seq"`

	// Timestamp is when the version was recorded.
	Timestamp time.Time `json:"timestamp"`

	Data Document `json:"data"`
}

// VersionsByURL maps a URL, exactly as entered, to its history (newest first).
type VersionsByURL map[string][]Version

// For returns a copy of the history recorded for url.
func (h VersionsByURL) For(url string) []Version {
	list := h[url]
	out := make([]Version, len(list))
	copy(out, list)
	return out
}

// With returns a copy of h in which url maps to versions. h is not modified.
func (h VersionsByURL) With(url string, versions []Version) VersionsByURL {
	out := make(VersionsByURL, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	out[url] = versions
	return out
}

// Latest returns the newest version recorded for url.
func (h VersionsByURL) Latest(url string) (Version, bool) {
	list := h[url]
	if len(list) == 0 {
		return Version{}, false
	}
	return list[0], true
}

// ReconcileResult is the outcome of Reconcile.
type ReconcileResult struct {
	Versions []Version
	Changed  bool
	Added    *Version // set only when Changed
}

// Reconcile decides whether candidate is a new version of versions.
//
// A candidate structurally equal to versions[0] leaves the history as is.
// Otherwise, including when the history is empty, a new version is prepended.
// The input slice is never modified or aliased.
func Reconcile(versions []Version, candidate Document, now time.Time, newID func() string) ReconcileResult {
	if len(versions) > 0 && versions[0].Data.Equal(candidate) {
		out := make([]Version, len(versions))
		copy(out, versions)
		return ReconcileResult{Versions: out}
	}

	v := Version{
		ID:        newID(),
		Seq:       nextSeq(versions),
		Timestamp: now,
		Data:      candidate,
	}

	out := make([]Version, 0, len(versions)+1)
	out = append(out, v)
	out = append(out, versions...)
	return ReconcileResult{Versions: out, Changed: true, Added: &v}
}

func nextSeq(versions []Version) uint64 {
	var max uint64
	for _, v := range versions {
		if v.Seq > max {
			max = v.Seq
		}
	}
	return max + 1
}
