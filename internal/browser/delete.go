package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/logger"
	"github.com/damacus/iron-explorer/internal/models"
)

// DeleteFailure records one key that could not be removed.
type DeleteFailure struct {
	Key string
	Err error
}

// DeleteResult aggregates a bulk delete over the expanded key set.
type DeleteResult struct {
	Keys      []string
	Succeeded int
	Failed    int
	Failures  []DeleteFailure
}

// Deleter removes single keys and expanded selections.
type Deleter struct {
	backend  Backend
	notifier Notifier
	log      *logger.Logger
	limit    int
}

// NewDeleter creates a Deleter. concurrency <= 0 uses DefaultConcurrency.
func NewDeleter(backend Backend, notifier Notifier, log *logger.Logger, concurrency int) *Deleter {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Deleter{backend: backend, notifier: notifier, log: log, limit: concurrency}
}

// DeleteOne removes a single file. Folder keys are rejected; use BulkDelete
// to remove a folder's contents. A key that is already gone counts as
// deleted.
func (d *Deleter) DeleteOne(ctx context.Context, key string) error {
	if key == "" || IsFolderKey(key) {
		return errs.New(errs.ErrKindValidation, "not a file: "+key)
	}

	if err := d.deleteKey(ctx, key); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("delete failed")
		d.notifier.Notify(Notification{Kind: NotifyError, Title: "Delete failed", Message: err.Error()})
		return err
	}

	d.notifier.Notify(Notification{Kind: NotifySuccess, Title: "File deleted", Message: baseName(key) + " deleted"})
	return nil
}

// BulkDelete expands selection against records and deletes every resulting
// key. All deletes run to completion; failures are counted, not returned.
func (d *Deleter) BulkDelete(ctx context.Context, selection []string, records []models.ObjectRecord) (DeleteResult, error) {
	if len(selection) == 0 {
		return DeleteResult{}, errs.New(errs.ErrKindValidation, "nothing selected")
	}

	keys := ExpandSelection(selection, records)
	result := DeleteResult{Keys: keys}
	if len(keys) == 0 {
		d.notifier.Notify(Notification{Kind: NotifyInfo, Title: "Nothing to delete", Message: "0 objects deleted"})
		return result, nil
	}

	var mu sync.Mutex
	settleAll(ctx, d.limit, len(keys), func(ctx context.Context, i int) {
		err := d.deleteKey(ctx, keys[i])

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, DeleteFailure{Key: keys[i], Err: err})
			d.log.Warn().Err(err).Str("key", keys[i]).Msg("delete failed")
			return
		}
		result.Succeeded++
	})

	d.log.Info().
		Int("selected", len(selection)).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("bulk delete finished")
	d.notifier.Notify(deleteSummary(result))
	return result, nil
}

func (d *Deleter) deleteKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.ErrKindCancelled, "delete cancelled", err)
	}
	err := d.backend.DeleteObject(ctx, key)
	if err == nil || errs.IsNotFound(err) {
		return nil
	}
	return errs.FromContext(ctx, "failed to delete "+key, err)
}

// ExpandSelection turns selected keys into object keys. A folder key becomes
// every record key under it; a file key stands for itself. The result keeps
// first-seen order and holds no duplicates.
func ExpandSelection(selection []string, records []models.ObjectRecord) []string {
	seen := make(map[string]bool)
	keys := make([]string, 0, len(selection))
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	for _, sel := range selection {
		if !IsFolderKey(sel) {
			add(sel)
			continue
		}
		for _, r := range records {
			if strings.HasPrefix(r.Key, sel) {
				add(r.Key)
			}
		}
	}
	return keys
}

func deleteSummary(r DeleteResult) Notification {
	if r.Failed > 0 {
		return Notification{
			Kind:    NotifyError,
			Title:   "Delete finished with errors",
			Message: fmt.Sprintf("%d deleted, %d failed", r.Succeeded, r.Failed),
		}
	}
	return Notification{
		Kind:    NotifySuccess,
		Title:   "Delete complete",
		Message: fmt.Sprintf("%d object(s) deleted", r.Succeeded),
	}
}
