package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/damacus/iron-explorer/internal/config"
	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/logger"
	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBucket is both the Backend and the Transport: upload URLs are
// "mem://<key>" and Put writes straight into the map.
type memBucket struct {
	mu      sync.Mutex
	objects map[string]int64
}

func newMemBucket(keys map[string]int64) *memBucket {
	return &memBucket{objects: keys}
}

func (b *memBucket) ListObjects(_ context.Context, prefix string) ([]models.ObjectRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.ObjectRecord
	for k, size := range b.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, models.ObjectRecord{Key: k, Size: size, LastModified: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *memBucket) UploadURL(_ context.Context, key, _ string) (string, error) {
	return "mem://" + key, nil
}

func (b *memBucket) DownloadURL(_ context.Context, key string, inline bool) (string, error) {
	if inline {
		return "mem-get://" + key + "?inline", nil
	}
	return "mem-get://" + key, nil
}

func (b *memBucket) DeleteObject(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBucket) Put(_ context.Context, url string, body io.Reader, size int64, _ string, progress func(sent, total int64)) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.objects[strings.TrimPrefix(url, "mem://")] = int64(len(data))
	b.mu.Unlock()
	if progress != nil {
		progress(size, size)
	}
	return nil
}

func (b *memBucket) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

func (b *memBucket) connect(context.Context, *config.Config, *logger.Logger) (*connection, error) {
	return &connection{
		backend:   b,
		transport: b,
		usage: func(context.Context) (*models.UsageResponse, error) {
			return &models.UsageResponse{Bucket: "photos", Size: 2048, FormattedSize: utils.FormatBytes(2048)}, nil
		},
	}, nil
}

func seedBucket() *memBucket {
	return newMemBucket(map[string]int64{
		"docs/":          0,
		"docs/readme.md": 5,
		"cat.jpg":        1024,
	})
}

func run(t *testing.T, b *memBucket, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	var out bytes.Buffer
	cmd := newRootCmd(&out, b.connect)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--bucket", "photos"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLs_Root(t *testing.T) {
	out, err := run(t, seedBucket(), "ls")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "docs/")
	assert.Contains(t, lines[2], "cat.jpg")
	assert.Contains(t, lines[2], "image")
}

func TestLs_Folder(t *testing.T) {
	out, err := run(t, seedBucket(), "ls", "docs")
	require.NoError(t, err)

	assert.Contains(t, out, "readme.md")
	assert.NotContains(t, out, "cat.jpg")
}

func TestLs_SortBySizeDesc(t *testing.T) {
	b := newMemBucket(map[string]int64{"small.txt": 1, "big.txt": 100})
	out, err := run(t, b, "ls", "--sort", "size", "--desc")
	require.NoError(t, err)

	assert.Less(t, strings.Index(out, "big.txt"), strings.Index(out, "small.txt"))
}

func TestLs_UnknownSort(t *testing.T) {
	_, err := run(t, seedBucket(), "ls", "--sort", "colour")
	assert.True(t, errs.IsValidation(err))
}

func TestFind(t *testing.T) {
	out, err := run(t, seedBucket(), "find", "readme")
	require.NoError(t, err)

	assert.Contains(t, out, "docs/readme.md")
	assert.NotContains(t, out, "cat.jpg")
}

func TestUpload(t *testing.T) {
	b := seedBucket()
	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("todo"), 0o600))

	out, err := run(t, b, "upload", "--to", "docs", src)
	require.NoError(t, err)

	assert.Contains(t, out, "1 uploaded, 0 failed, 0 cancelled")
	assert.True(t, b.has("docs/notes.txt"))
}

func TestUpload_MissingFile(t *testing.T) {
	_, err := run(t, seedBucket(), "upload", filepath.Join(t.TempDir(), "nope.txt"))
	assert.True(t, errs.IsValidation(err))
}

func TestRm_FolderAndFile(t *testing.T) {
	b := seedBucket()
	out, err := run(t, b, "rm", "docs", "cat.jpg")
	require.NoError(t, err)

	assert.Contains(t, out, "deleting 2 items (1.0 KB)")
	assert.Contains(t, out, "3 deleted, 0 failed")
	assert.False(t, b.has("docs/readme.md"))
	assert.False(t, b.has("docs/"))
	assert.False(t, b.has("cat.jpg"))
}

func TestRm_RepeatedKeys(t *testing.T) {
	b := seedBucket()
	out, err := run(t, b, "rm", "cat.jpg", "cat.jpg", "docs", "docs/")
	require.NoError(t, err)

	assert.Contains(t, out, "3 deleted, 0 failed")
	assert.False(t, b.has("cat.jpg"))
	assert.False(t, b.has("docs/readme.md"))
}

func TestRm_Missing(t *testing.T) {
	b := seedBucket()
	_, err := run(t, b, "rm", "docs/nothing.txt")

	assert.True(t, errs.IsNotFound(err))
	assert.True(t, b.has("docs/readme.md"))
}

func TestURL(t *testing.T) {
	out, err := run(t, seedBucket(), "url", "--inline", "docs/readme.md")
	require.NoError(t, err)
	assert.Equal(t, "mem-get://docs/readme.md?inline\n", out)

	out, err = run(t, seedBucket(), "url", "cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, "mem-get://cat.jpg\n", out)

	_, err = run(t, seedBucket(), "url", "dog.jpg")
	assert.True(t, errs.IsNotFound(err))
}

func TestMkdir(t *testing.T) {
	b := seedBucket()
	out, err := run(t, b, "mkdir", "docs/drafts")
	require.NoError(t, err)

	assert.Equal(t, "docs/drafts/\n", out)
	assert.True(t, b.has("docs/drafts/"))
}

func TestUsage(t *testing.T) {
	out, err := run(t, seedBucket(), "usage")
	require.NoError(t, err)
	assert.Equal(t, "photos\t"+utils.FormatBytes(2048)+"\n", out)
}

func TestFolderKey(t *testing.T) {
	assert.Equal(t, "", folderKey(""))
	assert.Equal(t, "", folderKey("/"))
	assert.Equal(t, "a/", folderKey("a"))
	assert.Equal(t, "a/b/", folderKey("/a/b/"))
}

func TestGroupByFolder(t *testing.T) {
	groups := groupByFolder([]string{"a/x", "b", "a/y", "/c/", "a/", "a/x", "/b"})
	require.Len(t, groups, 2)
	assert.Equal(t, folderGroup{folder: "a/", keys: []string{"a/x", "a/y"}}, groups[0])
	assert.Equal(t, folderGroup{folder: "", keys: []string{"b", "c/", "a/"}}, groups[1])
}
