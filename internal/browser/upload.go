package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/logger"
	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of an UploadTask.
type TaskStatus string

const (
	StatusQueued    TaskStatus = "queued"
	StatusUploading TaskStatus = "uploading"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusCancelled TaskStatus = "cancelled"
)

// Terminal reports whether no further transitions happen from s.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// UploadTask is one queued file. Values handed out by the Uploader are
// copies.
type UploadTask struct {
	ID       string
	File     LocalFile
	Progress float64 // 0..100
	Status   TaskStatus
	Err      error
}

// UploadResult aggregates a settled batch.
type UploadResult struct {
	BatchID   string
	Succeeded int
	Failed    int
	Cancelled int
	Tasks     []UploadTask
}

// UploaderOptions configures an Uploader.
type UploaderOptions struct {
	// Concurrency bounds the transfers in flight. Defaults to DefaultConcurrency.
	Concurrency int
	Logger      *logger.Logger
	// OnProgress, when set, receives a copy of a task after every change.
	OnProgress func(UploadTask)
}

// Uploader keeps the upload queue and runs it as one cancellable batch.
type Uploader struct {
	backend    Backend
	transport  Transport
	notifier   Notifier
	log        *logger.Logger
	limit      int
	onProgress func(UploadTask)

	mu        sync.Mutex
	queue     []*UploadTask
	uploading bool
	cancel    context.CancelFunc
}

// NewUploader creates an Uploader. A nil notifier discards notifications.
func NewUploader(backend Backend, transport Transport, notifier Notifier, opts UploaderOptions) *Uploader {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Uploader{
		backend:    backend,
		transport:  transport,
		notifier:   notifier,
		log:        log,
		limit:      limit,
		onProgress: opts.OnProgress,
	}
}

// Enqueue appends files to the queue and returns the new task IDs.
func (u *Uploader) Enqueue(files ...LocalFile) []string {
	if len(files) == 0 {
		return nil
	}

	ids := make([]string, len(files))
	u.mu.Lock()
	for i, f := range files {
		t := &UploadTask{ID: uuid.NewString(), File: f, Status: StatusQueued}
		u.queue = append(u.queue, t)
		ids[i] = t.ID
	}
	u.mu.Unlock()

	u.notifier.Notify(Notification{
		Kind:    NotifyInfo,
		Title:   "Files added",
		Message: fmt.Sprintf("%d file(s) added to the upload queue", len(files)),
	})
	return ids
}

// Remove drops a task from the queue. It is rejected while a batch runs.
func (u *Uploader) Remove(id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.uploading {
		return errs.New(errs.ErrKindConflict, "cannot change the queue during an upload")
	}
	for i, t := range u.queue {
		if t.ID == id {
			u.queue = append(u.queue[:i], u.queue[i+1:]...)
			return nil
		}
	}
	return errs.New(errs.ErrKindNotFound, "no queued upload with id "+id)
}

// Tasks returns copies of the queued tasks in queue order.
func (u *Uploader) Tasks() []UploadTask {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]UploadTask, len(u.queue))
	for i, t := range u.queue {
		out[i] = *t
	}
	return out
}

// Uploading reports whether a batch is running.
func (u *Uploader) Uploading() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploading
}

// Cancel aborts the running batch. It reports whether there was one.
func (u *Uploader) Cancel() bool {
	u.mu.Lock()
	cancel := u.cancel
	u.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Upload sends every queued file to currentPath+name and waits for all of
// them to settle. Individual failures are recorded on the tasks and counted
// in the result; the returned error is only for a rejected batch.
func (u *Uploader) Upload(ctx context.Context, currentPath string) (UploadResult, error) {
	u.mu.Lock()
	if u.uploading {
		u.mu.Unlock()
		return UploadResult{}, errs.New(errs.ErrKindConflict, "an upload is already in progress")
	}
	if len(u.queue) == 0 {
		u.mu.Unlock()
		return UploadResult{}, errs.New(errs.ErrKindValidation, "no files queued for upload")
	}
	batch := append([]*UploadTask(nil), u.queue...)
	batchCtx, cancel := context.WithCancel(ctx)
	u.uploading = true
	u.cancel = cancel
	u.mu.Unlock()

	result := UploadResult{BatchID: uuid.NewString()}
	log := u.log.With().Str("batch_id", result.BatchID).Str("path", currentPath).Logger()
	log.Info().Int("files", len(batch)).Msg("upload started")

	settleAll(batchCtx, u.limit, len(batch), func(ctx context.Context, i int) {
		u.run(ctx, log, currentPath, batch[i])
	})
	cancel()

	u.mu.Lock()
	for _, t := range batch {
		switch t.Status {
		case StatusCompleted:
			result.Succeeded++
		case StatusCancelled:
			result.Cancelled++
		default:
			result.Failed++
		}
		result.Tasks = append(result.Tasks, *t)
	}
	u.queue = without(u.queue, batch)
	u.uploading = false
	u.cancel = nil
	u.mu.Unlock()

	log.Info().
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("cancelled", result.Cancelled).
		Msg("upload finished")
	u.notifier.Notify(uploadSummary(result))
	return result, nil
}

func (u *Uploader) run(ctx context.Context, log *logger.Logger, currentPath string, t *UploadTask) {
	if ctx.Err() != nil {
		u.finish(log, t, errs.Wrap(errs.ErrKindCancelled, "upload cancelled", ctx.Err()))
		return
	}
	u.update(t, func(t *UploadTask) {
		t.Status = StatusUploading
		t.Progress = 0
	})

	key := currentPath + t.File.Name()
	contentType := t.File.ContentType()

	url, err := u.backend.UploadURL(ctx, key, contentType)
	if err != nil {
		u.finish(log, t, errs.FromContext(ctx, "failed to get upload URL", err))
		return
	}

	body, err := t.File.Open()
	if err != nil {
		u.finish(log, t, errs.Wrap(errs.ErrKindValidation, "failed to open "+t.File.Name(), err))
		return
	}
	defer body.Close()

	err = u.transport.Put(ctx, url, body, t.File.Size(), contentType, func(sent, total int64) {
		if total <= 0 {
			return
		}
		pct := float64(sent) / float64(total) * 100
		u.update(t, func(t *UploadTask) {
			t.Progress = min(pct, 100)
		})
	})
	u.finish(log, t, errs.FromContext(ctx, "failed to upload "+key, err))
}

func (u *Uploader) finish(log *logger.Logger, t *UploadTask, err error) {
	u.update(t, func(t *UploadTask) {
		switch {
		case err == nil:
			t.Status = StatusCompleted
			t.Progress = 100
		case errs.IsCancelled(err):
			t.Status = StatusCancelled
			t.Err = err
		default:
			t.Status = StatusFailed
			t.Err = err
		}
	})
	if err != nil && !errs.IsCancelled(err) {
		log.Warn().Err(err).Str("file", t.File.Name()).Msg("upload failed")
	}
}

// update applies fn to t under the lock and hands a copy to OnProgress.
// Tasks in a terminal state are left alone.
func (u *Uploader) update(t *UploadTask, fn func(*UploadTask)) {
	u.mu.Lock()
	if t.Status.Terminal() {
		u.mu.Unlock()
		return
	}
	fn(t)
	snapshot := *t
	u.mu.Unlock()

	if u.onProgress != nil {
		u.onProgress(snapshot)
	}
}

func without(queue, batch []*UploadTask) []*UploadTask {
	done := make(map[*UploadTask]bool, len(batch))
	for _, t := range batch {
		done[t] = true
	}
	rest := queue[:0:0]
	for _, t := range queue {
		if !done[t] {
			rest = append(rest, t)
		}
	}
	return rest
}

func uploadSummary(r UploadResult) Notification {
	switch {
	case r.Failed > 0:
		msg := fmt.Sprintf("%d uploaded, %d failed", r.Succeeded, r.Failed)
		if r.Cancelled > 0 {
			msg += fmt.Sprintf(", %d cancelled", r.Cancelled)
		}
		return Notification{Kind: NotifyError, Title: "Upload finished with errors", Message: msg}
	case r.Cancelled > 0:
		return Notification{
			Kind:    NotifyInfo,
			Title:   "Upload cancelled",
			Message: fmt.Sprintf("%d uploaded, %d cancelled", r.Succeeded, r.Cancelled),
		}
	default:
		return Notification{
			Kind:    NotifySuccess,
			Title:   "Upload complete",
			Message: fmt.Sprintf("%d file(s) uploaded", r.Succeeded),
		}
	}
}
