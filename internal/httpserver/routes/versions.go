package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/handlers"
)

func init() { Register(registerVersions) }

func registerVersions(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/versions", handlers.ListVersions(d))
	g.Post("/api/versions/selection", handlers.SelectVersions(d))
	g.Delete("/api/versions/selection", handlers.ClearSelection(d))
	g.Get("/api/versions/diff", handlers.DiffVersions(d))
	g.Post("/api/versions/{index}/restore", handlers.RestoreVersion(d))
}
