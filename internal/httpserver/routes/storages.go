package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/handlers"
)

func init() { Register(registerStorages) }

func registerStorages(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/storages", handlers.ListStorages(d))
	g.Post("/api/storages", handlers.CreateStorage(d))
	g.Patch("/api/storages/{id}", handlers.EditStorage(d))
	g.Delete("/api/storages/{id}", handlers.DeleteStorage(d))
}
