package client

import (
	"context"
	"path"
	"time"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/utils"
)

// DirectBackend signs URLs and lists objects with store credentials held by
// the caller, without going through the API server.
type DirectBackend struct {
	Store  services.ObjectStore
	Bucket string
	TTL    time.Duration
}

// NewDirectBackend creates a backend for bucket. ttl is clamped to the
// store's presign limit; zero uses services.DefaultPresignTTL.
func NewDirectBackend(store services.ObjectStore, bucket string, ttl time.Duration) *DirectBackend {
	return &DirectBackend{Store: store, Bucket: bucket, TTL: services.ClampTTL(ttl, services.DefaultPresignTTL)}
}

func (b *DirectBackend) ListObjects(ctx context.Context, prefix string) ([]models.ObjectRecord, error) {
	return b.Store.ListObjects(ctx, b.Bucket, prefix)
}

func (b *DirectBackend) UploadURL(ctx context.Context, key, contentType string) (string, error) {
	u, err := b.Store.PresignPut(ctx, b.Bucket, key, contentType, b.TTL)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (b *DirectBackend) DownloadURL(ctx context.Context, key string, inline bool) (string, error) {
	u, err := b.Store.PresignGet(ctx, b.Bucket, key, utils.ContentDisposition(path.Base(key), inline), b.TTL)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (b *DirectBackend) DeleteObject(ctx context.Context, key string) error {
	err := b.Store.RemoveObject(ctx, b.Bucket, key)
	if errs.IsNotFound(err) {
		return nil
	}
	return err
}
