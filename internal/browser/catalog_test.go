package browser

import (
	"context"
	"testing"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_RefreshRootScope(t *testing.T) {
	backend := newFakeBackend("a/x", "a/y", "b/z")
	c := NewCatalog(backend, ScopeRoot)

	require.NoError(t, c.Refresh(context.Background(), "a/"))
	assert.Len(t, c.Snapshot(), 3)
	assert.Equal(t, []string{""}, backend.listCalls)
	assert.False(t, c.FetchedAt().IsZero())
}

func TestCatalog_RefreshPathScope(t *testing.T) {
	backend := newFakeBackend("a/x", "a/y", "b/z")
	c := NewCatalog(backend, ScopePath)

	require.NoError(t, c.Refresh(context.Background(), "a/"))
	assert.Len(t, c.Snapshot(), 2)
	assert.Equal(t, []string{"a/"}, backend.listCalls)
}

func TestCatalog_RefreshFailureKeepsLastSnapshot(t *testing.T) {
	backend := newFakeBackend("a/x", "b/z")
	c := NewCatalog(backend, ScopeRoot)
	require.NoError(t, c.Refresh(context.Background(), ""))
	before := c.Snapshot()

	backend.setListErr(transportErr("connection refused"))
	err := c.Refresh(context.Background(), "")

	assert.True(t, errs.IsTransport(err))
	assert.Equal(t, before, c.Snapshot())
	assert.True(t, c.Contains("a/x"))
}

func TestCatalog_ContainsAndSize(t *testing.T) {
	backend := newFakeBackend("a/x", "a/y", "b/z")
	c := NewCatalog(backend, ScopeRoot)
	require.NoError(t, c.Refresh(context.Background(), ""))

	assert.True(t, c.Contains("a/x"))
	assert.False(t, c.Contains("a/"))

	assert.Equal(t, int64(10), c.Size("a/x"))
	assert.Equal(t, int64(30), c.Size("a/"))
	assert.Equal(t, int64(0), c.Size("missing"))
}

func TestParseScope(t *testing.T) {
	assert.Equal(t, ScopePath, ParseScope("path"))
	assert.Equal(t, ScopeRoot, ParseScope("root"))
	assert.Equal(t, ScopeRoot, ParseScope(""))
}
