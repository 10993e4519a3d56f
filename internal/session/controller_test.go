package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
	"github.com/longkidkoolstar/jsonviewer/internal/remote"
	"github.com/longkidkoolstar/jsonviewer/internal/store"
	"github.com/longkidkoolstar/jsonviewer/internal/store/memory"
)

// fakeRemote serves documents by endpoint URL and records pushes.
type fakeRemote struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	fetches   int
	updates   int
	pushed    []domain.Document

	entered chan struct{} // closed/sent when Fetch starts, if non-nil
	release chan struct{} // Fetch waits on it, if non-nil
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{responses: map[string]string{}}
}

func (f *fakeRemote) serve(url, doc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = doc
}

func (f *fakeRemote) Fetch(ctx context.Context, rawURL, key string) (domain.Document, remote.Endpoint, error) {
	ep, err := remote.ResolveEndpoint(rawURL, key)
	if err != nil {
		return domain.Document{}, remote.Endpoint{}, err
	}

	f.mu.Lock()
	f.fetches++
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Document{}, ep, f.err
	}
	body, ok := f.responses[ep.URL]
	if !ok {
		return domain.Document{}, ep, &domain.RemoteRejectionError{StatusCode: 404, Status: "404 Not Found"}
	}
	doc, err := domain.ParseDocument([]byte(body))
	return doc, ep, err
}

func (f *fakeRemote) Update(ctx context.Context, rawURL, key string, doc domain.Document) (remote.Endpoint, error) {
	ep, err := remote.ResolveEndpoint(rawURL, key)
	if err != nil {
		return remote.Endpoint{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.err != nil {
		return ep, f.err
	}
	f.pushed = append(f.pushed, doc)
	f.responses[ep.URL] = string(doc.Raw())
	return ep, nil
}

func (f *fakeRemote) counts() (fetches, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches, f.updates
}

// failingStore fails every Save once armed.
type failingStore struct {
	store.Store
	mu   sync.Mutex
	fail bool
}

func (s *failingStore) arm() {
	s.mu.Lock()
	s.fail = true
	s.mu.Unlock()
}

func (s *failingStore) Save(ctx context.Context, key string, v any) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return store.WriteError(key, errors.New("disk full"))
	}
	return s.Store.Save(ctx, key, v)
}

func (s *failingStore) Update(ctx context.Context, key string, fn store.UpdateFunc) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return store.WriteError(key, errors.New("disk full"))
	}
	return s.Store.Update(ctx, key, fn)
}

type fixture struct {
	ctrl    *Controller
	remote  *fakeRemote
	backend *failingStore
	docs    *store.Documents
	clock   *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := &failingStore{Store: memory.New()}
	docs := store.NewDocuments(backend)
	rem := newFakeRemote()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{remote: rem, backend: backend, docs: docs, clock: &now}

	seq := 0
	f.ctrl = New(docs, rem, logger.Nop(),
		WithClock(func() time.Time { return *f.clock }),
		WithVersionIDs(func() string { seq++; return fmt.Sprintf("v%d", seq) }),
		WithStorageIDs(func() string { seq++; return fmt.Sprintf("s%d", seq) }),
	)
	if err := f.ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return f
}

func (f *fixture) tick() { *f.clock = f.clock.Add(time.Second) }

const urlX = "https://api.example.com/x"

func TestFetchScenarios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A: empty history.
	f.remote.serve(urlX, `{"a":1}`)
	res, err := f.ctrl.Fetch(ctx, urlX)
	if err != nil {
		t.Fatalf("Fetch A: %v", err)
	}
	if !res.Changed || res.Notice != NoticeNewVersion || res.Added == nil {
		t.Errorf("A: result = %+v", res)
	}
	hist := f.ctrl.Versions(urlX)
	if len(hist) != 1 || !hist[0].Timestamp.Equal(*f.clock) {
		t.Fatalf("A: history = %+v", hist)
	}

	// B: same document, key order changed.
	f.tick()
	f.remote.serve(urlX, `{ "a" : 1.0 }`)
	res, err = f.ctrl.Fetch(ctx, urlX)
	if err != nil {
		t.Fatalf("Fetch B: %v", err)
	}
	if res.Changed || res.Notice != NoticeNoChanges || res.Added != nil {
		t.Errorf("B: result = %+v", res)
	}
	if len(f.ctrl.Versions(urlX)) != 1 {
		t.Errorf("B: history grew to %d", len(f.ctrl.Versions(urlX)))
	}

	// C: new content is prepended.
	f.tick()
	f.remote.serve(urlX, `{"a":2}`)
	if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
		t.Fatalf("Fetch C: %v", err)
	}
	hist = f.ctrl.Versions(urlX)
	if len(hist) != 2 {
		t.Fatalf("C: history len = %d, want 2", len(hist))
	}
	if !hist[0].Data.Equal(domain.MustParseDocument(`{"a":2}`)) || !hist[1].Data.Equal(domain.MustParseDocument(`{"a":1}`)) {
		t.Errorf("C: history order wrong: %s, %s", hist[0].Data.Raw(), hist[1].Data.Raw())
	}
	if hist[0].Seq <= hist[1].Seq || hist[0].ID == hist[1].ID {
		t.Errorf("C: ids/seqs not distinct: %+v %+v", hist[0], hist[1])
	}

	// Persisted state matches.
	persisted, err := f.docs.LoadVersions(ctx)
	if err != nil || len(persisted.For(urlX)) != 2 {
		t.Errorf("persisted history = %d, %v", len(persisted.For(urlX)), err)
	}

	s := f.ctrl.Snapshot()
	if s.CurrentURL != urlX || !s.Buffer.Valid || s.Buffer.Text != s.Current.Pretty() {
		t.Errorf("snapshot after fetch = %+v", s)
	}
}

func TestFetchSameInstantDistinctVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, body := range []string{`1`, `2`, `3`} {
		f.remote.serve(urlX, body)
		if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
			t.Fatal(err)
		}
	}

	hist := f.ctrl.Versions(urlX)
	if len(hist) != 3 {
		t.Fatalf("history len = %d", len(hist))
	}
	for i := 0; i < len(hist)-1; i++ {
		if hist[i].Seq <= hist[i+1].Seq {
			t.Errorf("seq not strictly decreasing towards older: %d then %d", hist[i].Seq, hist[i+1].Seq)
		}
		if hist[i].ID == hist[i+1].ID {
			t.Errorf("duplicate id %q", hist[i].ID)
		}
	}
}

func TestFetchEmbeddedKeyWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.ctrl.SetAPIKey(ctx, "fallback"); err != nil {
		t.Fatal(err)
	}
	f.remote.serve(urlX, `{}`)
	if _, err := f.ctrl.Fetch(ctx, urlX+"?apiKey=embedded"); err != nil {
		t.Fatal(err)
	}

	settings, err := f.docs.LoadSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if settings.APIKey != "embedded" || settings.URL != urlX+"?apiKey=embedded" {
		t.Errorf("persisted settings = %+v", settings)
	}
}

func TestFetchFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.remote.serve(urlX, `{"a":1}`)
	if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
		t.Fatal(err)
	}
	before := f.ctrl.Snapshot()

	f.remote.err = fmt.Errorf("%w: connection refused", domain.ErrNetwork)
	_, err := f.ctrl.Fetch(ctx, "https://other.example.com/y")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}

	after := f.ctrl.Snapshot()
	if after.Revision != before.Revision || after.CurrentURL != before.CurrentURL {
		t.Errorf("snapshot changed after failed fetch: rev %d -> %d", before.Revision, after.Revision)
	}
	settings, _ := f.docs.LoadSettings(ctx)
	if settings.URL != urlX {
		t.Errorf("persisted settings changed: %+v", settings)
	}
}

func TestFetchRemoteRejection(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Fetch(context.Background(), "https://nowhere.example.com/z")
	if !errors.Is(err, domain.ErrRemoteRejection) {
		t.Errorf("err = %v, want ErrRemoteRejection", err)
	}
	if len(f.ctrl.Snapshot().Versions) != 0 {
		t.Error("rejected fetch created history")
	}
}

func TestPersistFailureLeavesSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.serve(urlX, `{"a":1}`)
	before := f.ctrl.Snapshot()

	f.backend.arm()
	_, err := f.ctrl.Fetch(ctx, urlX)
	if !errors.Is(err, domain.ErrStorageWrite) {
		t.Fatalf("err = %v, want ErrStorageWrite", err)
	}

	after := f.ctrl.Snapshot()
	if after.Revision != before.Revision || len(after.Versions.For(urlX)) != 0 {
		t.Errorf("snapshot published despite persist failure: %+v", after)
	}
	if f.ctrl.Loading() {
		t.Error("loading gate not released after failure")
	}
}

func TestBusyGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.serve(urlX, `{"a":1}`)
	f.remote.entered = make(chan struct{}, 1)
	f.remote.release = make(chan struct{})

	errc := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Fetch(ctx, urlX)
		errc <- err
	}()
	<-f.remote.entered

	if !f.ctrl.Loading() {
		t.Error("Loading() = false while fetch in flight")
	}
	if _, err := f.ctrl.Fetch(ctx, urlX); !errors.Is(err, domain.ErrBusy) {
		t.Errorf("second Fetch err = %v, want ErrBusy", err)
	}
	if _, err := f.ctrl.SaveStorage(ctx, "Prod"); !errors.Is(err, domain.ErrBusy) {
		t.Errorf("SaveStorage err = %v, want ErrBusy", err)
	}
	if _, err := f.ctrl.Edit(`{}`); !errors.Is(err, domain.ErrBusy) {
		t.Errorf("Edit err = %v, want ErrBusy", err)
	}

	// Ungated actions still go through.
	f.ctrl.SetURL("https://typed.example.com")

	close(f.remote.release)
	if err := <-errc; err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	if fetches, _ := f.remote.counts(); fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
	if f.ctrl.Loading() {
		t.Error("gate still held after fetch returned")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.ctrl.SetAPIKey(ctx, " secret "); err != nil {
		t.Fatal(err)
	}
	f.remote.serve(urlX, `[1,2,3]`)
	if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
		t.Fatal(err)
	}

	reloaded := New(f.docs, f.remote, logger.Nop())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	s := reloaded.Snapshot()
	if s.Settings.APIKey != "secret" || s.CurrentURL != urlX {
		t.Errorf("reloaded settings = %+v, url %q", s.Settings, s.CurrentURL)
	}
	if !s.Current.Equal(domain.MustParseDocument(`[1,2,3]`)) {
		t.Errorf("reloaded current = %s", s.Current.Raw())
	}
	if s.ActiveStorageID != "" || s.Selection != nil {
		t.Error("active storage and selection must start empty")
	}
}

func TestEditBuffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.serve(urlX, `{"a":1}`)
	if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
		t.Fatal(err)
	}

	buf, err := f.ctrl.Edit(`{"a":`)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Valid || buf.Error == "" || buf.Text != `{"a":` {
		t.Errorf("invalid edit buffer = %+v", buf)
	}
	if !f.ctrl.Snapshot().Current.Equal(domain.MustParseDocument(`{"a":1}`)) {
		t.Error("invalid edit replaced the current document")
	}

	if _, err := f.ctrl.ProposeUpdate(); !errors.Is(err, domain.ErrParse) {
		t.Errorf("ProposeUpdate with invalid buffer err = %v, want ErrParse", err)
	}

	buf, err = f.ctrl.Edit(`{"a":3}`)
	if err != nil || !buf.Valid {
		t.Fatalf("valid edit = %+v, %v", buf, err)
	}
	if !f.ctrl.Snapshot().Current.Equal(domain.MustParseDocument(`{"a":3}`)) {
		t.Error("valid edit did not replace the current document")
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.serve(urlX, `{"a":1}`)
	if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ctrl.Edit(`{"a":2}`); err != nil {
		t.Fatal(err)
	}

	p, err := f.ctrl.ProposeUpdate()
	if err != nil {
		t.Fatal(err)
	}
	if p.Risk != RiskNone || p.NeedsConfirmation() {
		t.Errorf("proposal risk = %s, want none", p.Risk)
	}

	out, err := f.ctrl.Confirm(ctx, p.Token)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !out.Changed || out.Added == nil {
		t.Errorf("outcome = %+v", out)
	}
	if _, updates := f.remote.counts(); updates != 1 {
		t.Errorf("updates = %d, want 1", updates)
	}
	if n := len(f.ctrl.Versions(urlX)); n != 2 {
		t.Errorf("history len = %d, want 2", n)
	}

	// Confirming the same token twice is unknown.
	if _, err := f.ctrl.Confirm(ctx, p.Token); !errors.Is(err, domain.ErrUnknownConfirmation) {
		t.Errorf("second Confirm err = %v, want ErrUnknownConfirmation", err)
	}
}

func TestUpdateValidation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ctrl.ProposeUpdate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("no url: err = %v, want ErrValidation", err)
	}
	f.ctrl.SetURL(urlX)
	if _, err := f.ctrl.ProposeUpdate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("no document: err = %v, want ErrValidation", err)
	}
}

func TestStaleConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.serve(urlX, `{"a":1}`)
	if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
		t.Fatal(err)
	}

	p, err := f.ctrl.ProposeUpdate()
	if err != nil {
		t.Fatal(err)
	}
	f.ctrl.SetURL("https://elsewhere.example.com")

	if _, err := f.ctrl.Confirm(ctx, p.Token); !errors.Is(err, domain.ErrStaleConfirmation) {
		t.Errorf("err = %v, want ErrStaleConfirmation", err)
	}
	if _, updates := f.remote.counts(); updates != 0 {
		t.Errorf("stale confirmation issued %d updates", updates)
	}
	if _, err := f.ctrl.Confirm(ctx, p.Token); !errors.Is(err, domain.ErrUnknownConfirmation) {
		t.Errorf("stale token should be dropped, got %v", err)
	}
}

// Scenario D: declining the deletion of the active storage changes nothing.
func TestDeleteActiveDeclined(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.SetURL("https://x/y")
	entry, err := f.ctrl.SaveStorage(ctx, "Prod")
	if err != nil {
		t.Fatal(err)
	}
	if f.ctrl.Snapshot().ActiveStorageID != entry.ID {
		t.Fatal("saved storage should become active")
	}

	p, err := f.ctrl.ProposeDeleteStorage(entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.Risk != RiskDeleteActive {
		t.Errorf("risk = %s, want %s", p.Risk, RiskDeleteActive)
	}
	f.ctrl.Cancel(p.Token)

	s := f.ctrl.Snapshot()
	if !s.Storages.Has(entry.ID) || s.ActiveStorageID != entry.ID {
		t.Errorf("after cancel: has=%v active=%q", s.Storages.Has(entry.ID), s.ActiveStorageID)
	}
	if _, err := f.ctrl.Confirm(ctx, p.Token); !errors.Is(err, domain.ErrUnknownConfirmation) {
		t.Errorf("cancelled token err = %v", err)
	}
}

func TestDeleteActiveConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.SetURL("https://x/y")
	entry, err := f.ctrl.SaveStorage(ctx, "Prod")
	if err != nil {
		t.Fatal(err)
	}
	p, err := f.ctrl.ProposeDeleteStorage(entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.ctrl.Confirm(ctx, p.Token)
	if err != nil {
		t.Fatal(err)
	}
	if out.Removed == nil || out.Removed.ID != entry.ID {
		t.Errorf("outcome = %+v", out)
	}

	s := f.ctrl.Snapshot()
	if s.Storages.Has(entry.ID) || s.ActiveStorageID != "" {
		t.Errorf("after delete: has=%v active=%q", s.Storages.Has(entry.ID), s.ActiveStorageID)
	}
	persisted, _ := f.docs.LoadStorages(ctx)
	if persisted.Len() != 0 {
		t.Errorf("persisted storages = %d, want 0", persisted.Len())
	}

	if _, err := f.ctrl.ProposeDeleteStorage("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}
}

// Scenario E: the URL matches S2 while S1 is active; declining must not push.
func TestMismatchedStorageDeclined(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const url1, url2 = "https://one.example.com/doc", "https://two.example.com/doc"
	f.remote.serve(url1, `{"n":1}`)
	f.remote.serve(url2, `{"n":2}`)

	s1, err := f.ctrl.AddStorage(ctx, "One", url1)
	if err != nil {
		t.Fatal(err)
	}
	f.tick()
	s2, err := f.ctrl.AddStorage(ctx, "Two", url2)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.ctrl.LoadStorage(ctx, s1.ID); err != nil {
		t.Fatal(err)
	}
	f.ctrl.SetURL(url2)
	historyBefore := f.ctrl.Versions(url2)

	adv := f.ctrl.Advisory()
	if adv.Kind != domain.AdvisoryMatched || !adv.Mismatch || adv.Matched.ID != s2.ID {
		t.Fatalf("advisory = %+v", adv)
	}

	p, err := f.ctrl.ProposeUpdate()
	if err != nil {
		t.Fatal(err)
	}
	if p.Risk != RiskMismatchedStorage || p.StorageID != s2.ID {
		t.Errorf("proposal = %+v", p)
	}
	f.ctrl.Cancel(p.Token)

	if _, updates := f.remote.counts(); updates != 0 {
		t.Errorf("declined update issued %d PUTs", updates)
	}
	if got := f.ctrl.Versions(url2); len(got) != len(historyBefore) {
		t.Errorf("history of %s changed: %d -> %d", url2, len(historyBefore), len(got))
	}
}

func TestLoadStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.serve(urlX, `{"ok":true}`)

	entry, err := f.ctrl.AddStorage(ctx, "X", urlX)
	if err != nil {
		t.Fatal(err)
	}
	if f.ctrl.Snapshot().ActiveStorageID != "" {
		t.Error("AddStorage must not change the active storage")
	}

	f.tick()
	res, err := f.ctrl.LoadStorage(ctx, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.ActiveStorageID != entry.ID || !res.Changed {
		t.Errorf("result = %+v", res)
	}

	s := f.ctrl.Snapshot()
	got, _ := s.Storages.Get(entry.ID)
	if !got.LastAccessed.Equal(*f.clock) {
		t.Errorf("lastAccessed = %v, want %v", got.LastAccessed, *f.clock)
	}
	if s.ActiveStorageID != entry.ID || s.CurrentURL != urlX {
		t.Errorf("snapshot active=%q url=%q", s.ActiveStorageID, s.CurrentURL)
	}

	if _, err := f.ctrl.LoadStorage(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown storage err = %v", err)
	}
}

func TestFetchSetsActiveFromURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.serve(urlX, `1`)
	f.remote.serve("https://other.example.com/q", `2`)

	entry, err := f.ctrl.AddStorage(ctx, "X", urlX)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
		t.Fatal(err)
	}
	if f.ctrl.Snapshot().ActiveStorageID != entry.ID {
		t.Error("fetching a saved URL should activate its storage")
	}
	if _, err := f.ctrl.Fetch(ctx, "https://other.example.com/q"); err != nil {
		t.Fatal(err)
	}
	if f.ctrl.Snapshot().ActiveStorageID != "" {
		t.Error("fetching an unsaved URL should clear the active storage")
	}
}

func TestEditStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.ctrl.AddStorage(ctx, "Old", urlX)
	if err != nil {
		t.Fatal(err)
	}
	edited, err := f.ctrl.EditStorage(ctx, entry.ID, domain.StorageEdit{Name: "New"})
	if err != nil {
		t.Fatal(err)
	}
	if edited.Name != "New" || edited.URL != urlX {
		t.Errorf("edited = %+v", edited)
	}
	if f.ctrl.Snapshot().ActiveStorageID != entry.ID {
		t.Error("edited storage should become active")
	}
	if _, err := f.ctrl.EditStorage(ctx, entry.ID, domain.StorageEdit{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty edit err = %v", err)
	}
	if _, err := f.ctrl.SaveStorage(ctx, "  "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank name err = %v", err)
	}
}

func TestSelectionDiffRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, body := range []string{`{"a":1}`, `{"a":2}`, `{"a":3}`} {
		f.remote.serve(urlX, body)
		if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := f.ctrl.Diff(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Diff without selection err = %v", err)
	}
	if _, err := f.ctrl.SelectVersions(1, 1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("same index err = %v", err)
	}
	rev := f.ctrl.Snapshot().Revision
	if _, err := f.ctrl.SelectVersions(0, 5); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("out of range err = %v", err)
	}
	if f.ctrl.Snapshot().Revision != rev {
		t.Error("rejected selection published a snapshot")
	}

	sel, err := f.ctrl.SelectVersions(2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sel.Newer != 0 || sel.Older != 2 {
		t.Errorf("selection = %+v", sel)
	}

	d, err := f.ctrl.Diff()
	if err != nil {
		t.Fatal(err)
	}
	if !d.Newer.Data.Equal(domain.MustParseDocument(`{"a":3}`)) || !d.Older.Data.Equal(domain.MustParseDocument(`{"a":1}`)) {
		t.Errorf("diff sides wrong: newer %s older %s", d.Newer.Data.Raw(), d.Older.Data.Raw())
	}
	if d.Text == "" {
		t.Error("diff text empty for different versions")
	}

	f.ctrl.ClearSelection()
	if f.ctrl.Snapshot().Selection != nil {
		t.Error("ClearSelection left a selection")
	}

	v, err := f.ctrl.RestoreVersion(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	s := f.ctrl.Snapshot()
	if !s.Current.Equal(v.Data) || s.Buffer.Text != v.Data.Pretty() {
		t.Error("restore did not load the version")
	}
	if len(s.History()) != 3 {
		t.Error("restore changed history")
	}
	if _, err := f.ctrl.RestoreVersion(ctx, 9); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("restore out of range err = %v", err)
	}
}

func TestFetchClearsSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, body := range []string{`1`, `2`} {
		f.remote.serve(urlX, body)
		if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.ctrl.SelectVersions(0, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
		t.Fatal(err)
	}
	if f.ctrl.Snapshot().Selection != nil {
		t.Error("fetch should clear the selection")
	}
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, fetched, err := f.ctrl.Refresh(ctx); err != nil || fetched {
		t.Fatalf("refresh without url = %v, %v", fetched, err)
	}

	f.remote.serve(urlX, `{"a":1}`)
	if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ctrl.AddStorage(ctx, "X", urlX); err != nil {
		t.Fatal(err)
	}

	f.tick()
	f.remote.serve(urlX, `{"a":2}`)
	res, fetched, err := f.ctrl.Refresh(ctx)
	if err != nil || !fetched || !res.Changed {
		t.Fatalf("refresh = %+v, %v, %v", res, fetched, err)
	}
	s := f.ctrl.Snapshot()
	if len(s.History()) != 2 || !s.Current.Equal(domain.MustParseDocument(`{"a":2}`)) {
		t.Errorf("history = %d, current = %s", len(s.History()), s.Current.Raw())
	}
	if s.ActiveStorageID != "" {
		t.Errorf("refresh changed the active storage to %q", s.ActiveStorageID)
	}

	if _, err := f.ctrl.Edit(`{"a":"local"}`); err != nil {
		t.Fatal(err)
	}
	f.remote.serve(urlX, `{"a":3}`)
	fetchesBefore, _ := f.remote.counts()
	if _, fetched, err := f.ctrl.Refresh(ctx); err != nil || fetched {
		t.Errorf("refresh with unsaved edits = %v, %v", fetched, err)
	}
	if fetches, _ := f.remote.counts(); fetches != fetchesBefore {
		t.Error("refresh with unsaved edits issued a request")
	}
}

func TestRefreshKeepsLocalChanges(t *testing.T) {
	ctx := context.Background()

	t.Run("valid edit of the pretty buffer", func(t *testing.T) {
		f := newFixture(t)
		f.remote.serve(urlX, `{"a":1}`)
		if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
			t.Fatal(err)
		}
		if _, err := f.ctrl.Edit("{\n  \"a\": 99\n}"); err != nil {
			t.Fatal(err)
		}

		if _, fetched, err := f.ctrl.Refresh(ctx); err != nil || fetched {
			t.Fatalf("refresh after edit = %v, %v", fetched, err)
		}
		if cur := f.ctrl.Snapshot().Current; !cur.Equal(domain.MustParseDocument(`{"a":99}`)) {
			t.Errorf("current = %s, want the edit", cur.Raw())
		}
	})

	t.Run("restored version", func(t *testing.T) {
		f := newFixture(t)
		f.remote.serve(urlX, `{"a":1}`)
		if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
			t.Fatal(err)
		}
		f.tick()
		f.remote.serve(urlX, `{"a":2}`)
		if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
			t.Fatal(err)
		}
		if _, err := f.ctrl.RestoreVersion(ctx, 1); err != nil {
			t.Fatal(err)
		}

		if _, fetched, err := f.ctrl.Refresh(ctx); err != nil || fetched {
			t.Fatalf("refresh after restore = %v, %v", fetched, err)
		}
		if cur := f.ctrl.Snapshot().Current; !cur.Equal(domain.MustParseDocument(`{"a":1}`)) {
			t.Errorf("current = %s, want the restored version", cur.Raw())
		}
	})

	t.Run("push clears the local marker", func(t *testing.T) {
		f := newFixture(t)
		f.remote.serve(urlX, `{"a":1}`)
		if _, err := f.ctrl.Fetch(ctx, urlX); err != nil {
			t.Fatal(err)
		}
		if _, err := f.ctrl.Edit(`{"a":5}`); err != nil {
			t.Fatal(err)
		}
		p, err := f.ctrl.ProposeUpdate()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.ctrl.Confirm(ctx, p.Token); err != nil {
			t.Fatal(err)
		}
		if f.ctrl.Snapshot().Dirty {
			t.Fatal("document still marked dirty after push")
		}

		f.tick()
		f.remote.serve(urlX, `{"a":6}`)
		res, fetched, err := f.ctrl.Refresh(ctx)
		if err != nil || !fetched || !res.Changed {
			t.Errorf("refresh after push = %+v, %v, %v", res, fetched, err)
		}
	})
}

func TestUnchangedRefreshKeepsConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.serve(urlX, `{"a":1}`)

	entry, err := f.ctrl.AddStorage(ctx, "X", urlX)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.ctrl.LoadStorage(ctx, entry.ID); err != nil {
		t.Fatal(err)
	}

	p, err := f.ctrl.ProposeDeleteStorage(entry.ID)
	if err != nil || p.Risk != RiskDeleteActive {
		t.Fatalf("proposal = %+v, %v", p, err)
	}
	rev := f.ctrl.Snapshot().Revision

	f.tick()
	if res, fetched, err := f.ctrl.Refresh(ctx); err != nil || !fetched || res.Changed {
		t.Fatalf("refresh = %+v, %v, %v", res, fetched, err)
	}
	if got := f.ctrl.Snapshot().Revision; got != rev {
		t.Errorf("unchanged refresh moved revision %d -> %d", rev, got)
	}

	if _, err := f.ctrl.Confirm(ctx, p.Token); err != nil {
		t.Fatalf("confirm after unchanged refresh: %v", err)
	}
	if f.ctrl.Snapshot().Storages.Has(entry.ID) {
		t.Error("storage not deleted")
	}
}

func TestControllersSharingStore(t *testing.T) {
	ctx := context.Background()
	docs := store.NewDocuments(memory.New())
	rem := newFakeRemote()
	const urlY = "https://api.example.com/y"
	rem.serve(urlX, `{"x":1}`)
	rem.serve(urlY, `{"y":1}`)

	open := func() *Controller {
		c := New(docs, rem, logger.Nop())
		if err := c.Load(ctx); err != nil {
			t.Fatal(err)
		}
		return c
	}
	cli, server := open(), open()

	if _, err := cli.Fetch(ctx, urlX); err != nil {
		t.Fatal(err)
	}
	if _, err := cli.AddStorage(ctx, "X", urlX); err != nil {
		t.Fatal(err)
	}
	if _, err := server.Fetch(ctx, urlY); err != nil {
		t.Fatal(err)
	}
	if _, err := server.AddStorage(ctx, "Y", urlY); err != nil {
		t.Fatal(err)
	}

	if n := len(server.Snapshot().Versions.For(urlX)); n != 1 {
		t.Errorf("server does not see the other writer's history: %d versions", n)
	}

	fresh := open()
	s := fresh.Snapshot()
	if len(s.Versions.For(urlX)) != 1 || len(s.Versions.For(urlY)) != 1 {
		t.Errorf("persisted history = x:%d y:%d, want 1 each",
			len(s.Versions.For(urlX)), len(s.Versions.For(urlY)))
	}
	if s.Storages.Len() != 2 {
		t.Errorf("persisted storages = %d, want 2", s.Storages.Len())
	}

	rem.serve(urlX, `{"x":2}`)
	if _, err := server.Fetch(ctx, urlX); err != nil {
		t.Fatal(err)
	}
	history := server.Snapshot().Versions.For(urlX)
	if len(history) != 2 || history[0].Seq != 2 {
		t.Errorf("history after second writer = %+v", history)
	}
}
