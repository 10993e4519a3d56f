package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
	"github.com/longkidkoolstar/jsonviewer/internal/session"
)

type confirmationResponse struct {
	Confirmation *session.Proposal `json:"confirmation"`
}

// resolve confirms p directly when it carries no risk; otherwise the caller
// gets a 409 with the proposal to confirm or cancel.
func resolve(ctx context.Context, d deps.Deps, w http.ResponseWriter, p *session.Proposal) {
	if p.NeedsConfirmation() {
		writeJSON(w, http.StatusConflict, confirmationResponse{Confirmation: p})
		return
	}
	out, err := d.Session.Confirm(ctx, p.Token)
	if err != nil {
		d.Session.Cancel(p.Token)
		writeError(w, d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Update pushes the current document to the current URL.
func Update(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Session.ProposeUpdate()
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		resolve(r.Context(), d, w, p)
	}
}

func ConfirmProposal(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := d.Session.Confirm(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func CancelProposal(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Session.Cancel(chi.URLParam(r, "token"))
		w.WriteHeader(http.StatusNoContent)
	}
}
