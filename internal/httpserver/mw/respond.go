package mw

import (
	"net/http"
)

// reject writes the API error body used by the handlers package.
func reject(w http.ResponseWriter, status int, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + http.StatusText(status) + `","kind":"` + kind + `"}` + "\n"))
}
