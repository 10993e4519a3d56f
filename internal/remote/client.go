package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
	"github.com/longkidkoolstar/jsonviewer/internal/utils"
)

const (
	// requestTimeout bounds a single fetch or update. Not configurable.
	requestTimeout = 30 * time.Second
	// maxBodyBytes caps the size of a fetched document.
	maxBodyBytes = 16 << 20
	// excerptBytes is how much of an error body is kept in RemoteRejectionError.
	excerptBytes = 256
)

// Client performs exactly one HTTP attempt per call; it never retries.
type Client struct {
	http   *http.Client
	logger logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a remote document client.
func New(log logger.Logger, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: requestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("stopped after 5 redirects")
				}
				return nil
			},
		},
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch GETs the document at rawURL.
func (c *Client) Fetch(ctx context.Context, rawURL, fallbackKey string) (domain.Document, Endpoint, error) {
	ep, err := ResolveEndpoint(rawURL, fallbackKey)
	if err != nil {
		return domain.Document{}, Endpoint{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.requestURL(), http.NoBody)
	if err != nil {
		return domain.Document{}, ep, domain.Validationf("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, ep)
	if err != nil {
		return domain.Document{}, ep, err
	}

	doc, err := domain.ParseDocument(body)
	if err != nil {
		return domain.Document{}, ep, fmt.Errorf("remote returned a non-json document: %w", err)
	}
	return doc, ep, nil
}

// Update PUTs doc to rawURL, replacing the remote document.
func (c *Client) Update(ctx context.Context, rawURL, fallbackKey string, doc domain.Document) (Endpoint, error) {
	ep, err := ResolveEndpoint(rawURL, fallbackKey)
	if err != nil {
		return Endpoint{}, err
	}
	if doc.IsZero() {
		return ep, domain.Validationf("no document to update")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ep.requestURL(), bytes.NewReader(doc.Raw()))
	if err != nil {
		return ep, domain.Validationf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if _, err := c.do(req, ep); err != nil {
		return ep, err
	}
	return ep, nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, ep Endpoint) ([]byte, error) {
	start := time.Now()
	c.logger.Debug("remote request",
		logger.String("method", req.Method),
		logger.String("url", ep.Redacted()))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote request failed",
			logger.String("method", req.Method),
			logger.String("url", ep.Redacted()),
			logger.Error(scrub(err, ep)))
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, req.Method, ep.Redacted(), scrub(err, ep))
	}
	defer utils.DrainAndClose(resp.Body, maxBodyBytes)

	c.logger.Debug("remote response",
		logger.String("method", req.Method),
		logger.String("url", ep.Redacted()),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, excerptBytes))
		return nil, &domain.RemoteRejectionError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrNetwork, scrub(err, ep))
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", domain.ErrNetwork, maxBodyBytes)
	}
	return body, nil
}

// scrub removes the API key from transport errors, which embed the request
// URL with the key query-escaped.
func scrub(err error, ep Endpoint) error {
	if ep.APIKey == "" {
		return err
	}
	msg := err.Error()
	for _, form := range []string{url.QueryEscape(ep.APIKey), url.PathEscape(ep.APIKey), ep.APIKey} {
		msg = strings.ReplaceAll(msg, form, "***")
	}
	return errors.New(msg)
}
