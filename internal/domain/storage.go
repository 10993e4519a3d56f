package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// StorageEntry is a user-named shortcut to a document URL.
// Entries are unique by ID; several entries may point at the same URL.
type StorageEntry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	LastAccessed time.Time `json:"lastAccessed"`
}

// StorageEdit describes changes to an entry. Empty fields are left unchanged.
type StorageEdit struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Registry is an immutable list of storage entries kept in insertion order.
// Every mutating method returns a new Registry.
type Registry struct {
	entries []StorageEntry
}

// NewRegistry builds a registry from entries (insertion order preserved).
func NewRegistry(entries []StorageEntry) Registry {
	out := make([]StorageEntry, len(entries))
	copy(out, entries)
	return Registry{entries: out}
}

// Len returns the number of entries.
func (r Registry) Len() int { return len(r.entries) }

// Entries returns the entries in insertion order.
func (r Registry) Entries() []StorageEntry {
	out := make([]StorageEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Create adds a new entry.
func (r Registry) Create(name, url string, now time.Time, id string) (Registry, StorageEntry, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if url == "" {
		return r, StorageEntry{}, Validationf("storage url is required")
	}
	if name == "" {
		return r, StorageEntry{}, Validationf("storage name is required")
	}

	e := StorageEntry{ID: id, Name: name, URL: url, LastAccessed: now}
	next := make([]StorageEntry, 0, len(r.entries)+1)
	next = append(next, r.entries...)
	next = append(next, e)
	return Registry{entries: next}, e, nil
}

// Rename changes an entry's name and marks it as accessed.
func (r Registry) Rename(id, newName string, now time.Time) (Registry, StorageEntry, error) {
	if strings.TrimSpace(newName) == "" {
		return r, StorageEntry{}, Validationf("storage name is required")
	}
	return r.Edit(id, StorageEdit{Name: newName}, now)
}

// Edit applies edit to the entry and marks it as accessed.
func (r Registry) Edit(id string, edit StorageEdit, now time.Time) (Registry, StorageEntry, error) {
	return r.update(id, func(e *StorageEntry) {
		if name := strings.TrimSpace(edit.Name); name != "" {
			e.Name = name
		}
		if url := strings.TrimSpace(edit.URL); url != "" {
			e.URL = url
		}
		e.LastAccessed = now
	})
}

// Touch marks the entry as accessed.
func (r Registry) Touch(id string, now time.Time) (Registry, StorageEntry, error) {
	return r.update(id, func(e *StorageEntry) { e.LastAccessed = now })
}

func (r Registry) update(id string, fn func(*StorageEntry)) (Registry, StorageEntry, error) {
	i := r.index(id)
	if i < 0 {
		return r, StorageEntry{}, notFound(id)
	}
	next := r.Entries()
	fn(&next[i])
	return Registry{entries: next}, next[i], nil
}

// Remove deletes the entry.
func (r Registry) Remove(id string) (Registry, error) {
	i := r.index(id)
	if i < 0 {
		return r, notFound(id)
	}
	next := make([]StorageEntry, 0, len(r.entries)-1)
	next = append(next, r.entries[:i]...)
	next = append(next, r.entries[i+1:]...)
	return Registry{entries: next}, nil
}

// Get returns the entry with the given id.
func (r Registry) Get(id string) (StorageEntry, bool) {
	if i := r.index(id); i >= 0 {
		return r.entries[i], true
	}
	return StorageEntry{}, false
}

// Has reports whether id is a known entry.
func (r Registry) Has(id string) bool { return r.index(id) >= 0 }

// List returns entries, most recently accessed first. Ties keep insertion order.
func (r Registry) List() []StorageEntry {
	out := r.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastAccessed.After(out[j].LastAccessed)
	})
	return out
}

// FindByURL returns the most recently accessed entry whose URL equals url.
func (r Registry) FindByURL(url string) (StorageEntry, bool) {
	url = strings.TrimSpace(url)
	if url == "" {
		return StorageEntry{}, false
	}
	for _, e := range r.List() {
		if e.URL == url {
			return e, true
		}
	}
	return StorageEntry{}, false
}

func (r Registry) index(id string) int {
	for i, e := range r.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func notFound(id string) error {
	return &notFoundError{id: id}
}

type notFoundError struct{ id string }

func (e *notFoundError) Error() string { return "storage not found: " + e.id }
func (e *notFoundError) Unwrap() error { return ErrNotFound }

// MarshalJSON encodes the registry as a plain array, the persisted shape of savedStorages.
func (r Registry) MarshalJSON() ([]byte, error) {
	if r.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.entries)
}

func (r *Registry) UnmarshalJSON(data []byte) error {
	var entries []StorageEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	r.entries = entries
	return nil
}
