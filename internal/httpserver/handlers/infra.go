package handlers

import (
	"net/http"

	"github.com/longkidkoolstar/jsonviewer/internal/httpserver/deps"
)

type componentStatus struct {
	OK       bool   `json:"ok"`
	Backend  string `json:"backend,omitempty"`
	Storages *int   `json:"storages,omitempty"`
	URLs     *int   `json:"urls,omitempty"`
	Loading  *bool  `json:"loading,omitempty"`
	Error    string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := d.Session.Snapshot()
		storages := s.Storages.Len()
		urls := len(s.Versions)
		loading := d.Session.Loading()

		storeStatus := componentStatus{OK: true, Backend: d.StoreBackend}
		if err := pingStore(r.Context(), d); err != nil {
			storeStatus.OK = false
			storeStatus.Error = err.Error()
		}

		components := map[string]componentStatus{
			"store": storeStatus,
			"session": {
				OK:       true,
				Storages: &storages,
				URLs:     &urls,
				Loading:  &loading,
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode is "degraded" when the store does not answer: reads keep
// working from memory but every persisting action fails.
func determineMode(components map[string]componentStatus) string {
	if st, ok := components["store"]; ok && !st.OK {
		return "degraded"
	}
	return "ok"
}
