// Package browser turns the flat key listing of an object store bucket into
// a folder-like view and drives the bulk operations a user performs on it.
//
// The package never talks to the network itself. A Backend lists objects,
// issues presigned URLs and deletes single keys; a Transport moves file bodies
// to presigned URLs; a Notifier receives the summaries of finished batches.
package browser

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/utils"
)

// Backend is the set of store primitives the browser builds on.
type Backend interface {
	// ListObjects returns every object whose key starts with prefix.
	ListObjects(ctx context.Context, prefix string) ([]models.ObjectRecord, error)
	// UploadURL issues a time-limited URL for one PUT of key.
	UploadURL(ctx context.Context, key, contentType string) (string, error)
	// DownloadURL issues a time-limited URL for one GET of key. inline selects
	// a preview disposition instead of an attachment.
	DownloadURL(ctx context.Context, key string, inline bool) (string, error)
	// DeleteObject removes a single key. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, key string) error
}

// Transport sends a file body to a presigned URL. progress, when non-nil, is
// called with the running byte count as the body is consumed.
type Transport interface {
	Put(ctx context.Context, url string, body io.Reader, size int64, contentType string, progress func(sent, total int64)) error
}

// LocalFile is a file queued for upload.
type LocalFile interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

// DiskFile is a LocalFile backed by a path on the local filesystem.
type DiskFile struct {
	path string
	name string
	size int64
}

// NewDiskFile stats path and returns a LocalFile for it.
func NewDiskFile(path string) (*DiskFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &DiskFile{path: path, name: filepath.Base(path), size: info.Size()}, nil
}

func (f *DiskFile) Name() string        { return f.name }
func (f *DiskFile) Size() int64         { return f.size }
func (f *DiskFile) ContentType() string { return utils.ContentTypeFromExt(f.name) }

func (f *DiskFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// MemoryFile is a LocalFile held in memory. Folder markers use it with an
// empty body.
type MemoryFile struct {
	FileName string
	Data     []byte
	Type     string
}

func (f *MemoryFile) Name() string { return f.FileName }
func (f *MemoryFile) Size() int64  { return int64(len(f.Data)) }

func (f *MemoryFile) ContentType() string {
	if f.Type != "" {
		return f.Type
	}
	return utils.ContentTypeFromExt(f.FileName)
}

func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
