package handlers

import (
	"net/http"

	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
)

// EditDocument replaces the edit buffer with the raw request body. Invalid
// JSON is accepted and reported through the buffer's valid flag.
func EditDocument(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		buf, err := d.Session.Edit(string(body))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, buf)
	}
}
