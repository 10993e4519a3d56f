package remote

import (
	"net/url"
	"strings"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
)

// APIKeyParam is the query parameter carrying the API key, both when embedded
// in a user-entered URL and on outgoing requests.
const APIKeyParam = "apiKey"

// Endpoint is a resolved request target: the URL without query or fragment,
// and the API key to send with it.
type Endpoint struct {
	URL    string
	APIKey string
}

// ResolveEndpoint strips the query string from rawURL. A key embedded in the
// query takes precedence over fallbackKey.
func ResolveEndpoint(rawURL, fallbackKey string) (Endpoint, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Endpoint{}, domain.Validationf("url is required")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Endpoint{}, domain.Validationf("invalid url %q: %v", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoint{}, domain.Validationf("url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return Endpoint{}, domain.Validationf("url %q has no host", rawURL)
	}

	key := fallbackKey
	if embedded := u.Query().Get(APIKeyParam); embedded != "" {
		key = embedded
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	return Endpoint{URL: u.String(), APIKey: key}, nil
}

// requestURL is the URL actually sent over the wire.
func (e Endpoint) requestURL() string {
	if e.APIKey == "" {
		return e.URL
	}
	return e.URL + "?" + url.Values{APIKeyParam: {e.APIKey}}.Encode()
}

// Redacted is safe to log.
func (e Endpoint) Redacted() string {
	if e.APIKey == "" {
		return e.URL
	}
	return e.URL + "?" + APIKeyParam + "=***"
}
