package browser

import (
	"sort"
	"strings"

	"github.com/damacus/iron-explorer/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortBy selects the field entries are ordered by.
type SortBy string

const (
	SortByName SortBy = "name"
	SortByDate SortBy = "date"
	SortBySize SortBy = "size"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ProjectOptions parameterises Project.
type ProjectOptions struct {
	// Path is the current folder: "" for the root, otherwise ending in "/".
	Path string
	// Query switches to search mode when it is non-blank.
	Query  string
	SortBy SortBy
	Order  SortOrder
}

// Project derives the sorted entries visible for opts from a catalog
// snapshot. It has no side effects; records is not modified.
func Project(records []models.ObjectRecord, opts ProjectOptions) []Entry {
	var entries []Entry
	if q := strings.TrimSpace(opts.Query); q != "" {
		entries = projectSearch(records, strings.ToLower(q))
	} else {
		entries = projectPath(records, opts.Path)
	}
	SortEntries(entries, opts.SortBy, opts.Order)
	return entries
}

func projectPath(records []models.ObjectRecord, current string) []Entry {
	entries := make([]Entry, 0)
	folders := make(map[string]bool)

	for _, rec := range records {
		if !strings.HasPrefix(rec.Key, current) {
			continue
		}
		rel := rec.Key[len(current):]
		if rel == "" {
			// directory marker for the current folder
			continue
		}

		if i := strings.Index(rel, "/"); i >= 0 {
			name := rel[:i]
			key := current + name + "/"
			if folders[key] {
				continue
			}
			folders[key] = true
			entries = append(entries, &FolderEntry{Key: key, Name: name})
			continue
		}

		entries = append(entries, newFileEntry(rec, rel, ""))
	}
	return entries
}

func projectSearch(records []models.ObjectRecord, query string) []Entry {
	entries := make([]Entry, 0)
	seen := make(map[string]bool)

	for _, rec := range records {
		segments := strings.Split(rec.Key, "/")

		prefix := ""
		for _, seg := range segments[:len(segments)-1] {
			prefix += seg + "/"
			if seg == "" || seen[prefix] {
				continue
			}
			if strings.Contains(strings.ToLower(seg), query) {
				seen[prefix] = true
				entries = append(entries, &FolderEntry{Key: prefix, Name: seg})
			}
		}

		name := segments[len(segments)-1]
		if name == "" || seen[rec.Key] {
			continue
		}
		if strings.Contains(strings.ToLower(name), query) {
			seen[rec.Key] = true
			entries = append(entries, newFileEntry(rec, name, rec.Key))
		}
	}
	return entries
}

func newFileEntry(rec models.ObjectRecord, name, fullPath string) *FileEntry {
	return &FileEntry{
		Key:          rec.Key,
		Name:         name,
		Size:         rec.Size,
		LastModified: rec.LastModified,
		FullPath:     fullPath,
		Type:         FileTypeOf(name),
	}
}

// SortEntries orders entries in place. Folders always come before files;
// order only reverses the comparison inside each group. Ties fall back to
// the key so that repeated sorts give the same order.
func SortEntries(entries []Entry, by SortBy, order SortOrder) {
	coll := collate.New(language.Und, collate.Numeric)

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		af, bf := IsFolder(a), IsFolder(b)
		if af != bf {
			return af
		}

		var c int
		switch by {
		case SortByDate:
			c = compareInt64(epochMillis(a), epochMillis(b))
		case SortBySize:
			c = compareInt64(entrySize(a), entrySize(b))
		default:
			c = coll.CompareString(EntryName(a), EntryName(b))
		}
		if c == 0 {
			c = strings.Compare(EntryKey(a), EntryKey(b))
		}
		if order == SortDesc {
			c = -c
		}
		return c < 0
	})
}

func epochMillis(e Entry) int64 {
	f, ok := e.(*FileEntry)
	if !ok || f.LastModified.IsZero() {
		return 0
	}
	return f.LastModified.UnixMilli()
}

func entrySize(e Entry) int64 {
	if f, ok := e.(*FileEntry); ok {
		return f.Size
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ParentPath returns the folder containing path: "a/b/" -> "a/", "a/" -> "".
func ParentPath(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return ""
	}
	return trimmed[:i+1]
}

// Breadcrumbs splits path into cumulative links, one per non-empty segment.
func Breadcrumbs(path string) []models.Breadcrumb {
	crumbs := make([]models.Breadcrumb, 0)
	current := ""
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		current += seg + "/"
		crumbs = append(crumbs, models.Breadcrumb{Name: seg, Path: current})
	}
	return crumbs
}
