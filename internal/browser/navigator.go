package browser

import (
	"strings"
	"sync"
	"time"

	"github.com/damacus/iron-explorer/internal/errs"
)

// DefaultDebounce is the quiet period before a typed search query is used.
const DefaultDebounce = 300 * time.Millisecond

// Change describes a committed navigation state.
type Change struct {
	Path  string
	Query string
	// PathChanged is false when only the search query moved.
	PathChanged bool
}

// Navigator owns the current folder and the committed search query.
// Keystrokes go through SetSearchQuery and are committed after a quiet
// period; every commit is reported to the change callback outside the lock.
type Navigator struct {
	debounce time.Duration
	onChange func(Change)

	mu    sync.Mutex
	path  string
	query string
	timer *time.Timer
	gen   uint64
}

// NewNavigator starts at the root. A debounce <= 0 commits queries at once.
// onChange may be nil.
func NewNavigator(debounce time.Duration, onChange func(Change)) *Navigator {
	if onChange == nil {
		onChange = func(Change) {}
	}
	return &Navigator{debounce: debounce, onChange: onChange}
}

// Path returns the current folder.
func (n *Navigator) Path() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

// Query returns the committed search query.
func (n *Navigator) Query() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.query
}

// NavigateToFolder moves to key and clears the search. key must be "" or
// end with "/".
func (n *Navigator) NavigateToFolder(key string) error {
	if key != "" && !IsFolderKey(key) {
		return errs.New(errs.ErrKindValidation, "not a folder: "+key)
	}

	n.mu.Lock()
	n.stopTimerLocked()
	n.path = key
	n.query = ""
	n.mu.Unlock()

	n.onChange(Change{Path: key, PathChanged: true})
	return nil
}

// NavigateBack moves to the parent folder. At the root it does nothing and
// returns false.
func (n *Navigator) NavigateBack() bool {
	n.mu.Lock()
	if n.path == "" {
		n.mu.Unlock()
		return false
	}
	parent := ParentPath(n.path)
	n.mu.Unlock()

	return n.NavigateToFolder(parent) == nil
}

// SetSearchQuery records a keystroke. The query is committed once no further
// call arrives within the debounce window. A blank query is committed at once.
func (n *Navigator) SetSearchQuery(raw string) {
	if strings.TrimSpace(raw) == "" || n.debounce <= 0 {
		n.CommitSearch(raw)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopTimerLocked()
	gen := n.gen
	n.timer = time.AfterFunc(n.debounce, func() {
		n.commit(raw, gen)
	})
}

// CommitSearch commits raw immediately, dropping any pending keystroke.
func (n *Navigator) CommitSearch(raw string) {
	n.mu.Lock()
	n.stopTimerLocked()
	gen := n.gen
	n.mu.Unlock()
	n.commit(raw, gen)
}

func (n *Navigator) commit(raw string, gen uint64) {
	query := strings.TrimSpace(raw)

	n.mu.Lock()
	if gen != n.gen || query == n.query {
		n.mu.Unlock()
		return
	}
	n.query = query
	path := n.path
	n.mu.Unlock()

	n.onChange(Change{Path: path, Query: query})
}

// Stop drops any pending search commit.
func (n *Navigator) Stop() {
	n.mu.Lock()
	n.stopTimerLocked()
	n.mu.Unlock()
}

// stopTimerLocked invalidates the pending timer. The generation bump covers
// a timer that already fired and is waiting for the lock.
func (n *Navigator) stopTimerLocked() {
	n.gen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
