package handlers

import (
	"net/http"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
	"github.com/longkidkoolstar/jsonviewer/internal/session"
)

type settingsView struct {
	APIKeySet bool   `json:"apiKeySet"`
	APIKey    string `json:"apiKey,omitempty"` // masked
	URL       string `json:"url"`
}

type stateResponse struct {
	Settings        settingsView          `json:"settings"`
	CurrentURL      string                `json:"currentUrl"`
	Document        domain.Document       `json:"document"`
	EditBuffer      session.EditBuffer    `json:"editBuffer"`
	Dirty           bool                  `json:"dirty"`
	ActiveStorageID string                `json:"activeStorageId,omitempty"`
	Selection       *session.Selection    `json:"selection"`
	Advisory        domain.Advisory       `json:"advisory"`
	Storages        []domain.StorageEntry `json:"storages"`
	Loading         bool                  `json:"loading"`
	Revision        uint64                `json:"revision"`
}

// maskKey keeps the last four characters of long keys.
func maskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return "****"
	default:
		return "****" + key[len(key)-4:]
	}
}

func State(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := d.Session.Snapshot()
		writeJSON(w, http.StatusOK, stateResponse{
			Settings: settingsView{
				APIKeySet: s.Settings.APIKey != "",
				APIKey:    maskKey(s.Settings.APIKey),
				URL:       s.Settings.URL,
			},
			CurrentURL:      s.CurrentURL,
			Document:        s.Current,
			EditBuffer:      s.Buffer,
			Dirty:           s.Dirty,
			ActiveStorageID: s.ActiveStorageID,
			Selection:       s.Selection,
			Advisory:        s.Advisory(),
			Storages:        s.Storages.List(),
			Loading:         d.Session.Loading(),
			Revision:        s.Revision,
		})
	}
}
