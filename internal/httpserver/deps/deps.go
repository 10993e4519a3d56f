package deps

import (
	"net/http"
	"time"

	"github.com/longkidkoolstar/jsonviewer/internal/logger"
	"github.com/longkidkoolstar/jsonviewer/internal/session"
	"github.com/longkidkoolstar/jsonviewer/internal/store"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the API
	AllowedCIDRS []string         // IPs allowed to access the API and probes
	TrustProxy   bool             // true if running behind a trusted reverse proxy
	Session      *session.Controller
	Store        store.Store // backend pinged by readyz and infra
	StoreBackend string      // backend name reported by infra

	// RemoteLimit throttles routes that reach the remote endpoint. Shared by
	// all of them so one client has a single budget.
	RemoteLimit func(http.Handler) http.Handler
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
