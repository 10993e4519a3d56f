package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/handlers"
)

func init() { Register(registerFetch) }

func registerFetch(r chi.Router, d deps.Deps) {
	g := remoteLimited(r, d)
	g.Post("/api/fetch", handlers.Fetch(d))
	g.Post("/api/refresh", handlers.Refresh(d))
	g.Post("/api/update", handlers.Update(d))
	g.Post("/api/confirmations/{token}", handlers.ConfirmProposal(d))
	g.Post("/api/storages/{id}/load", handlers.LoadStorage(d))

	guarded(r, d).Delete("/api/confirmations/{token}", handlers.CancelProposal(d))
}
