package browser

import (
	"sort"
	"sync"
)

// Selection is the set of selected entry keys. It only ever holds keys of
// the projection it was last bound to.
type Selection struct {
	mu       sync.Mutex
	visible  []string
	allowed  map[string]struct{}
	selected map[string]struct{}
}

// NewSelection returns an empty selection bound to no entries.
func NewSelection() *Selection {
	return &Selection{
		allowed:  map[string]struct{}{},
		selected: map[string]struct{}{},
	}
}

// Reset empties the selection and binds it to entries. Used whenever the
// path or the search query changes.
func (s *Selection) Reset(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bind(entries)
	s.selected = map[string]struct{}{}
}

// Reconcile binds the selection to entries and drops every selected key that
// is no longer visible.
func (s *Selection) Reconcile(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bind(entries)
	for k := range s.selected {
		if _, ok := s.allowed[k]; !ok {
			delete(s.selected, k)
		}
	}
}

func (s *Selection) bind(entries []Entry) {
	s.visible = make([]string, len(entries))
	s.allowed = make(map[string]struct{}, len(entries))
	for i, e := range entries {
		k := EntryKey(e)
		s.visible[i] = k
		s.allowed[k] = struct{}{}
	}
}

// Toggle flips key in or out of the selection. Keys not in the bound
// projection are ignored. It reports whether key is selected afterwards.
func (s *Selection) Toggle(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.allowed[key]; !ok {
		return false
	}
	if _, ok := s.selected[key]; ok {
		delete(s.selected, key)
		return false
	}
	s.selected[key] = struct{}{}
	return true
}

// SelectAll selects every visible entry, or clears the selection when all
// of them are already selected.
func (s *Selection) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.visible) > 0 && len(s.selected) == len(s.visible) {
		s.selected = map[string]struct{}{}
		return
	}
	s.selected = make(map[string]struct{}, len(s.visible))
	for _, k := range s.visible {
		s.selected[k] = struct{}{}
	}
}

// Clear empties the selection without rebinding it.
func (s *Selection) Clear() {
	s.mu.Lock()
	s.selected = map[string]struct{}{}
	s.mu.Unlock()
}

// IsSelected reports whether key is selected.
func (s *Selection) IsSelected(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[key]
	return ok
}

// Len returns the number of selected keys.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

// Keys returns the selected keys in sorted order.
func (s *Selection) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.selected))
	for k := range s.selected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
