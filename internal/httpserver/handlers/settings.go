package handlers

import (
	"net/http"

	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
)

type apiKeyRequest struct {
	APIKey string `json:"apiKey"`
}

type urlRequest struct {
	URL string `json:"url"`
}

func SetAPIKey(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiKeyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Session.SetAPIKey(r.Context(), req.APIKey); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SetURL(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		s := d.Session.SetURL(req.URL)
		writeJSON(w, http.StatusOK, map[string]any{
			"currentUrl": s.CurrentURL,
			"advisory":   s.Advisory(),
		})
	}
}
