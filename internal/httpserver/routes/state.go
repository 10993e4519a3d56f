package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/handlers"
)

func init() { Register(registerState) }

func registerState(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/state", handlers.State(d))
	g.Put("/api/settings/api-key", handlers.SetAPIKey(d))
	g.Put("/api/url", handlers.SetURL(d))
	g.Put("/api/document", handlers.EditDocument(d))
}
