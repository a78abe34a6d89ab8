package browser

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/models"
)

const fakeStoreURL = "https://store.test/"

// fakeBackend is an in-memory Backend.
type fakeBackend struct {
	mu         sync.Mutex
	records    []models.ObjectRecord
	listErr    error
	urlErr     map[string]error
	deleteErr  map[string]error
	listCalls  []string
	deleted    []string
	uploadKeys []string
}

func newFakeBackend(keys ...string) *fakeBackend {
	b := &fakeBackend{urlErr: map[string]error{}, deleteErr: map[string]error{}}
	for i, k := range keys {
		b.records = append(b.records, models.ObjectRecord{Key: k, Size: int64(10 * (i + 1))})
	}
	return b
}

func (b *fakeBackend) ListObjects(_ context.Context, prefix string) ([]models.ObjectRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls = append(b.listCalls, prefix)
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []models.ObjectRecord
	for _, r := range b.records {
		if strings.HasPrefix(r.Key, prefix) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *fakeBackend) UploadURL(_ context.Context, key, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.urlErr[key]; err != nil {
		return "", err
	}
	b.uploadKeys = append(b.uploadKeys, key)
	return fakeStoreURL + key, nil
}

func (b *fakeBackend) DownloadURL(_ context.Context, key string, inline bool) (string, error) {
	if inline {
		return fakeStoreURL + key + "?disposition=inline", nil
	}
	return fakeStoreURL + key + "?disposition=attachment", nil
}

func (b *fakeBackend) DeleteObject(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, key)
	if err := b.deleteErr[key]; err != nil {
		return err
	}
	var kept []models.ObjectRecord
	for _, r := range b.records {
		if r.Key != key {
			kept = append(kept, r)
		}
	}
	b.records = kept
	return nil
}

func (b *fakeBackend) setListErr(err error) {
	b.mu.Lock()
	b.listErr = err
	b.mu.Unlock()
}

func (b *fakeBackend) listCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listCalls)
}

func (b *fakeBackend) deletedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

// fakeTransport records PUTs. Blocking transfers wait for their context.
type fakeTransport struct {
	mu       sync.Mutex
	fail     map[string]error
	block    bool
	delay    time.Duration
	started  []string
	inFlight int
	maxIn    int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{fail: map[string]error{}}
}

func (t *fakeTransport) Put(ctx context.Context, url string, body io.Reader, size int64, _ string, progress func(sent, total int64)) error {
	t.mu.Lock()
	t.started = append(t.started, url)
	t.inFlight++
	if t.inFlight > t.maxIn {
		t.maxIn = t.inFlight
	}
	block, delay, failErr := t.block, t.delay, t.fail[url]
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.inFlight--
		t.mu.Unlock()
	}()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	if failErr != nil {
		return failErr
	}
	if progress != nil {
		progress(size/2, size)
		progress(size, size)
	}
	return nil
}

func (t *fakeTransport) startedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.started)
}

func (t *fakeTransport) inFlightCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// recorder collects notifications.
type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *recorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

func (r *recorder) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Notification{}
	}
	return r.notes[len(r.notes)-1]
}

func (r *recorder) count(kind NotificationKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, note := range r.notes {
		if note.Kind == kind {
			n++
		}
	}
	return n
}

func memFile(name, data string) *MemoryFile {
	return &MemoryFile{FileName: name, Data: []byte(data)}
}

func transportErr(msg string) error {
	return errs.New(errs.ErrKindTransport, msg)
}

func keysOf(entries []Entry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = EntryKey(e)
	}
	return keys
}
