// Package session owns the in-memory session snapshot and is the only place
// that mutates it. Network-bound and persisting actions pass through a
// single-slot loading gate; a second one started while the first is in flight
// fails with domain.ErrBusy.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
	"github.com/longkidkoolstar/jsonviewer/internal/remote"
	"github.com/longkidkoolstar/jsonviewer/internal/store"
)

// RemoteClient is the subset of remote.Client the controller needs.
type RemoteClient interface {
	Fetch(ctx context.Context, rawURL, fallbackKey string) (domain.Document, remote.Endpoint, error)
	Update(ctx context.Context, rawURL, fallbackKey string, doc domain.Document) (remote.Endpoint, error)
}

// Controller serialises session actions over one published Snapshot.
type Controller struct {
	docs   *store.Documents
	client RemoteClient
	logger logger.Logger

	now          func() time.Time
	newVersionID func() string
	newStorageID func() string

	loading atomic.Bool

	mu        sync.Mutex // guards snap and proposals
	snap      Snapshot
	proposals map[string]Proposal
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithVersionIDs overrides the version id generator (random UUIDs by default).
func WithVersionIDs(gen func() string) Option {
	return func(c *Controller) { c.newVersionID = gen }
}

// WithStorageIDs overrides the storage id generator (ULIDs by default).
func WithStorageIDs(gen func() string) Option {
	return func(c *Controller) { c.newStorageID = gen }
}

func New(docs *store.Documents, client RemoteClient, log logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		docs:         docs,
		client:       client,
		logger:       log,
		now:          time.Now,
		newVersionID: uuid.NewString,
		newStorageID: func() string { return ulid.Make().String() },
		proposals:    make(map[string]Proposal),
		snap:         Snapshot{Versions: domain.VersionsByURL{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads the persisted documents and publishes the startup snapshot.
// The active storage and the version selection always start empty.
func (c *Controller) Load(ctx context.Context) error {
	settings, err := c.docs.LoadSettings(ctx)
	if err != nil {
		return err
	}
	storages, err := c.docs.LoadStorages(ctx)
	if err != nil {
		return err
	}
	versions, err := c.docs.LoadVersions(ctx)
	if err != nil {
		return err
	}

	var current domain.Document
	if latest, ok := versions.Latest(settings.URL); ok {
		current = latest.Data
	}

	c.publish(func(s Snapshot) Snapshot {
		return Snapshot{
			Settings:   settings,
			Storages:   storages,
			Versions:   versions,
			CurrentURL: settings.URL,
			Current:    current,
			Buffer:     bufferFor(current),
			Revision:   s.Revision,
		}
	})

	c.logger.Info("session loaded",
		logger.Int("storages", storages.Len()),
		logger.Int("urls", len(versions)),
		logger.Bool("document", !current.IsZero()))
	return nil
}

// Snapshot returns the current published snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Loading reports whether a gated action is in flight.
func (c *Controller) Loading() bool { return c.loading.Load() }

// Advisory is the storage advisory for the current snapshot.
func (c *Controller) Advisory() domain.Advisory {
	return c.Snapshot().Advisory()
}

// begin claims the loading gate. The returned func releases it.
func (c *Controller) begin(action string) (func(), error) {
	if !c.loading.CompareAndSwap(false, true) {
		c.logger.Debug("action rejected, another is in flight", logger.String("action", action))
		return nil, domain.ErrBusy
	}
	return func() { c.loading.Store(false) }, nil
}

// publish applies fn to the current snapshot and installs the result with the
// next revision.
func (c *Controller) publish(fn func(Snapshot) Snapshot) Snapshot {
	next, _ := c.tryPublish(func(s Snapshot) (Snapshot, error) { return fn(s), nil })
	return next
}

// tryPublish is publish for updates that can be rejected; on error the
// published snapshot is left as it was.
func (c *Controller) tryPublish(fn func(Snapshot) (Snapshot, error)) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(c.snap)
	if err != nil {
		return c.snap, err
	}
	next.Revision = c.snap.Revision + 1
	c.snap = next
	return next, nil
}
