package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
	"github.com/longkidkoolstar/jsonviewer/internal/session"
)

// Fetch GETs the remote document. An empty body fetches the current URL.
func Fetch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		res, err := d.Session.Fetch(r.Context(), req.URL)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func LoadStorage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Session.LoadStorage(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type refreshResponse struct {
	Fetched bool                 `json:"fetched"`
	Result  *session.FetchResult `json:"result,omitempty"`
}

// Refresh refetches the current URL unless the edit buffer has unsaved changes.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, fetched, err := d.Session.Refresh(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		out := refreshResponse{Fetched: fetched}
		if fetched {
			out.Result = &res
		}
		writeJSON(w, http.StatusOK, out)
	}
}
