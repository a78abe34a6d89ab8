package browser

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/logger"
	"github.com/damacus/iron-explorer/internal/models"
)

// Options configures a Session. Zero values select the defaults.
type Options struct {
	Scope       Scope
	Concurrency int
	Debounce    time.Duration
	Logger      *logger.Logger
	Notifier    Notifier
	// OnUpdate receives every newly computed projection.
	OnUpdate func([]Entry)
	// OnProgress receives upload task changes.
	OnProgress func(UploadTask)
}

// Session is one user's view of a bucket: the catalog, where they are, what
// they have selected and the batches they run.
type Session struct {
	backend   Backend
	transport Transport
	notifier  Notifier
	log       *logger.Logger
	onUpdate  func([]Entry)

	catalog   *Catalog
	nav       *Navigator
	selection *Selection
	uploader  *Uploader
	deleter   *Deleter

	mu      sync.Mutex
	sortBy  SortBy
	order   SortOrder
	entries []Entry
}

// NewSession wires a Session over backend and transport.
func NewSession(backend Backend, transport Transport, opts Options) *Session {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Scope == "" {
		opts.Scope = ScopeRoot
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}

	s := &Session{
		backend:   backend,
		transport: transport,
		notifier:  opts.Notifier,
		log:       opts.Logger,
		onUpdate:  opts.OnUpdate,
		catalog:   NewCatalog(backend, opts.Scope),
		selection: NewSelection(),
		sortBy:    SortByName,
		order:     SortAsc,
		entries:   []Entry{},
	}
	s.nav = NewNavigator(opts.Debounce, s.handleChange)
	s.uploader = NewUploader(backend, transport, opts.Notifier, UploaderOptions{
		Concurrency: opts.Concurrency,
		Logger:      opts.Logger,
		OnProgress:  opts.OnProgress,
	})
	s.deleter = NewDeleter(backend, opts.Notifier, opts.Logger, opts.Concurrency)
	return s
}

// Close drops a pending search commit and cancels a running upload.
func (s *Session) Close() {
	s.nav.Stop()
	s.uploader.Cancel()
}

// Catalog exposes the underlying catalog.
func (s *Session) Catalog() *Catalog { return s.catalog }

// Path returns the current folder.
func (s *Session) Path() string { return s.nav.Path() }

// Query returns the committed search query.
func (s *Session) Query() string { return s.nav.Query() }

// Breadcrumbs returns the links for the current folder.
func (s *Session) Breadcrumbs() []models.Breadcrumb { return Breadcrumbs(s.nav.Path()) }

// Entries returns the current projection. Callers must not modify it.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries
}

// Refresh refetches the catalog and recomputes the projection. On failure
// the previous entries stay in place and one error notification is sent.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.catalog.Refresh(ctx, s.nav.Path()); err != nil {
		s.log.Error().Err(err).Str("path", s.nav.Path()).Msg("failed to refresh catalog")
		s.notifier.Notify(Notification{Kind: NotifyError, Title: "Failed to load objects", Message: err.Error()})
		return err
	}
	s.reproject(false)
	s.log.Debug().
		Str("path", s.nav.Path()).
		Time("fetched_at", s.catalog.FetchedAt()).
		Msg("catalog refreshed")
	return nil
}

// Navigate moves into key, clears search and selection, and refetches.
func (s *Session) Navigate(ctx context.Context, key string) error {
	if err := s.nav.NavigateToFolder(key); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// NavigateBack moves to the parent folder and refetches. At the root it
// returns false and does nothing.
func (s *Session) NavigateBack(ctx context.Context) (bool, error) {
	if !s.nav.NavigateBack() {
		return false, nil
	}
	return true, s.Refresh(ctx)
}

// SetSearchQuery feeds a keystroke to the debounced search.
func (s *Session) SetSearchQuery(raw string) { s.nav.SetSearchQuery(raw) }

// Search commits query immediately.
func (s *Session) Search(query string) { s.nav.CommitSearch(query) }

// SetSort changes the ordering. The selection survives.
func (s *Session) SetSort(by SortBy, order SortOrder) {
	s.mu.Lock()
	s.sortBy, s.order = by, order
	s.mu.Unlock()
	s.reproject(false)
}

// Toggle flips key in or out of the selection.
func (s *Session) Toggle(key string) bool { return s.selection.Toggle(key) }

// SelectAll selects every entry, or clears the selection if all are selected.
func (s *Session) SelectAll() { s.selection.SelectAll() }

// Selected returns the selected keys.
func (s *Session) Selected() []string { return s.selection.Keys() }

// SelectionSummary returns the number of selected entries and the bytes
// they cover. Folder sizes come from the catalog.
func (s *Session) SelectionSummary() (count int, size int64) {
	for _, k := range s.selection.Keys() {
		count++
		size += s.catalog.Size(k)
	}
	return count, size
}

// Enqueue adds files to the upload queue.
func (s *Session) Enqueue(files ...LocalFile) []string { return s.uploader.Enqueue(files...) }

// RemoveUpload drops a queued file.
func (s *Session) RemoveUpload(id string) error { return s.uploader.Remove(id) }

// UploadTasks returns the queued files and their progress.
func (s *Session) UploadTasks() []UploadTask { return s.uploader.Tasks() }

// CancelUpload aborts the running upload batch.
func (s *Session) CancelUpload() bool { return s.uploader.Cancel() }

// Upload sends the queue into the current folder and refetches afterwards.
func (s *Session) Upload(ctx context.Context) (UploadResult, error) {
	res, err := s.uploader.Upload(ctx, s.nav.Path())
	if err != nil {
		return res, err
	}
	_ = s.Refresh(ctx)
	return res, nil
}

// DeleteOne removes one file and refetches.
func (s *Session) DeleteOne(ctx context.Context, key string) error {
	if err := s.deleter.DeleteOne(ctx, key); err != nil {
		return err
	}
	_ = s.Refresh(ctx)
	return nil
}

// DeleteSelected removes every selected entry, expanding folders against
// the catalog. The selection is cleared and the catalog refetched even when
// some deletes failed.
func (s *Session) DeleteSelected(ctx context.Context) (DeleteResult, error) {
	res, err := s.deleter.BulkDelete(ctx, s.selection.Keys(), s.catalog.Snapshot())
	if err != nil {
		return res, err
	}
	s.selection.Clear()
	_ = s.Refresh(ctx)
	return res, nil
}

// PreviewURL returns an inline URL for a key in the catalog.
func (s *Session) PreviewURL(ctx context.Context, key string) (string, error) {
	return s.objectURL(ctx, key, true)
}

// DownloadURL returns an attachment URL for a key in the catalog.
func (s *Session) DownloadURL(ctx context.Context, key string) (string, error) {
	return s.objectURL(ctx, key, false)
}

func (s *Session) objectURL(ctx context.Context, key string, inline bool) (string, error) {
	if !s.catalog.Contains(key) {
		return "", errs.New(errs.ErrKindNotFound, "object not found: "+key)
	}
	url, err := s.backend.DownloadURL(ctx, key, inline)
	if err != nil {
		return "", errs.FromContext(ctx, "failed to get download URL", err)
	}
	return url, nil
}

// CreateFolder writes an empty directory marker for name under the current
// folder and refetches.
func (s *Session) CreateFolder(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "/") {
		return errs.New(errs.ErrKindValidation, "folder name must be non-empty and must not contain '/'")
	}
	key := s.nav.Path() + name + "/"

	url, err := s.backend.UploadURL(ctx, key, "")
	if err != nil {
		return errs.FromContext(ctx, "failed to get upload URL", err)
	}
	if err := s.transport.Put(ctx, url, strings.NewReader(""), 0, "", nil); err != nil {
		err = errs.FromContext(ctx, "failed to create folder", err)
		s.notifier.Notify(Notification{Kind: NotifyError, Title: "Failed to create folder", Message: err.Error()})
		return err
	}

	s.notifier.Notify(Notification{Kind: NotifySuccess, Title: "Folder created", Message: name})
	_ = s.Refresh(ctx)
	return nil
}

// handleChange runs for every committed navigation or search. Either one
// invalidates the selection.
func (s *Session) handleChange(Change) {
	s.reproject(true)
}

func (s *Session) reproject(reset bool) {
	s.mu.Lock()
	opts := ProjectOptions{
		Path:   s.nav.Path(),
		Query:  s.nav.Query(),
		SortBy: s.sortBy,
		Order:  s.order,
	}
	entries := Project(s.catalog.Snapshot(), opts)
	s.entries = entries
	// bound under s.mu so the selection always matches the published entries
	if reset {
		s.selection.Reset(entries)
	} else {
		s.selection.Reconcile(entries)
	}
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(entries)
	}
}
