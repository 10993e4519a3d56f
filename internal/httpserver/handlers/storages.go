package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
)

type storageRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func ListStorages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Session.ListStorages())
	}
}

// CreateStorage saves the current URL under name, or the given url when set.
// Only the former makes the new entry active.
func CreateStorage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storageRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		var (
			entry domain.StorageEntry
			err   error
		)
		if strings.TrimSpace(req.URL) == "" {
			entry, err = d.Session.SaveStorage(r.Context(), req.Name)
		} else {
			entry, err = d.Session.AddStorage(r.Context(), req.Name, req.URL)
		}
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func EditStorage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storageRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		entry, err := d.Session.EditStorage(r.Context(), chi.URLParam(r, "id"),
			domain.StorageEdit{Name: req.Name, URL: req.URL})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func DeleteStorage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Session.ProposeDeleteStorage(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		resolve(r.Context(), d, w, p)
	}
}
