package browser

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/models"
)

// Scope decides which prefix the catalog lists on refresh.
type Scope string

const (
	// ScopeRoot lists the whole bucket. Search and folder expansion see
	// every key.
	ScopeRoot Scope = "root"
	// ScopePath lists only the current folder.
	ScopePath Scope = "path"
)

// ParseScope returns ScopeRoot for anything other than "path".
func ParseScope(s string) Scope {
	if Scope(s) == ScopePath {
		return ScopePath
	}
	return ScopeRoot
}

// Catalog holds the last successfully fetched listing. Snapshots are
// replaced whole and never modified after they are stored.
type Catalog struct {
	backend Backend
	scope   Scope

	mu        sync.RWMutex
	records   []models.ObjectRecord
	keys      map[string]struct{}
	prefix    string
	fetchedAt time.Time
}

// NewCatalog creates an empty catalog reading from backend.
func NewCatalog(backend Backend, scope Scope) *Catalog {
	return &Catalog{backend: backend, scope: scope, keys: map[string]struct{}{}}
}

// Scope returns the listing scope.
func (c *Catalog) Scope() Scope {
	return c.scope
}

// Refresh lists the objects for path (or the whole bucket in ScopeRoot) and
// swaps in the result. On error the previous snapshot is kept.
func (c *Catalog) Refresh(ctx context.Context, path string) error {
	prefix := ""
	if c.scope == ScopePath {
		prefix = path
	}

	records, err := c.backend.ListObjects(ctx, prefix)
	if err != nil {
		return errs.FromContext(ctx, "failed to list objects", err)
	}

	keys := make(map[string]struct{}, len(records))
	for _, r := range records {
		keys[r.Key] = struct{}{}
	}

	c.mu.Lock()
	c.records = records
	c.keys = keys
	c.prefix = prefix
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// Snapshot returns the current records. Callers must not modify the slice.
func (c *Catalog) Snapshot() []models.ObjectRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records
}

// Contains reports whether key is in the current snapshot.
func (c *Catalog) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.keys[key]
	return ok
}

// Size returns the total size of key, or of every object under it when key
// is a folder.
func (c *Catalog) Size(key string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for _, r := range c.records {
		if r.Key == key || (IsFolderKey(key) && strings.HasPrefix(r.Key, key)) {
			total += r.Size
		}
	}
	return total
}

// FetchedAt returns when the current snapshot was stored, zero if never.
func (c *Catalog) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}
