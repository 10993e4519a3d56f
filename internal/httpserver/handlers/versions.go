package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
)

type selectionRequest struct {
	Indices []int `json:"indices"`
}

func ListVersions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versions := d.Session.Versions(r.URL.Query().Get("url"))
		if versions == nil {
			versions = []domain.Version{}
		}
		writeJSON(w, http.StatusOK, versions)
	}
}

func SelectVersions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if len(req.Indices) != 2 {
			writeError(w, d.Logger, domain.Validationf("exactly two indices are required, got %d", len(req.Indices)))
			return
		}
		sel, err := d.Session.SelectVersions(req.Indices[0], req.Indices[1])
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sel)
	}
}

func ClearSelection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Session.ClearSelection()
		w.WriteHeader(http.StatusNoContent)
	}
}

func DiffVersions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		diff, err := d.Session.Diff()
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, diff)
	}
}

func RestoreVersion(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, d.Logger, domain.Validationf("invalid version index %q", chi.URLParam(r, "index")))
			return
		}
		v, err := d.Session.RestoreVersion(r.Context(), index)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"version":    v,
			"editBuffer": d.Session.Snapshot().Buffer,
		})
	}
}
