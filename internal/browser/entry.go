package browser

import (
	"path"
	"strings"
	"time"
)

// FileType is the display category of an entry.
type FileType string

const (
	TypeFolder       FileType = "folder"
	TypeImage        FileType = "image"
	TypeVideo        FileType = "video"
	TypeAudio        FileType = "audio"
	TypeDocument     FileType = "document"
	TypeCode         FileType = "code"
	TypeArchive      FileType = "archive"
	TypeSpreadsheet  FileType = "spreadsheet"
	TypePresentation FileType = "presentation"
	TypeFile         FileType = "file"
)

var extensionTypes = map[string]FileType{}

func init() {
	register := func(t FileType, exts ...string) {
		for _, ext := range exts {
			extensionTypes[ext] = t
		}
	}
	register(TypeImage, "jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "ico", "tif", "tiff", "heic", "avif")
	register(TypeVideo, "mp4", "webm", "mov", "avi", "mkv", "m4v", "wmv", "flv")
	register(TypeAudio, "mp3", "wav", "ogg", "flac", "aac", "m4a", "wma")
	register(TypeDocument, "pdf", "doc", "docx", "txt", "md", "rtf", "odt")
	register(TypeCode, "go", "js", "ts", "jsx", "tsx", "py", "java", "c", "h", "cpp", "rs", "rb", "php",
		"html", "css", "json", "xml", "yaml", "yml", "sh", "sql", "toml")
	register(TypeArchive, "zip", "tar", "gz", "tgz", "rar", "7z", "bz2", "xz")
	register(TypeSpreadsheet, "xls", "xlsx", "csv", "ods")
	register(TypePresentation, "ppt", "pptx", "odp", "key")
}

// FileTypeOf categorises a file name by its extension.
func FileTypeOf(name string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return TypeFile
}

// Entry is one row of a projection: either a *FolderEntry or a *FileEntry.
// Use a type switch to reach variant-specific fields.
type Entry interface {
	entry()
}

// FolderEntry is a synthetic folder. Key always ends with "/" and stands for
// every object whose key has it as a prefix.
type FolderEntry struct {
	Key  string
	Name string
}

// FileEntry is one real object.
type FileEntry struct {
	Key          string
	Name         string
	Size         int64
	LastModified time.Time
	// FullPath is set in search results so callers can show where a match lives.
	FullPath string
	Type     FileType
}

func (*FolderEntry) entry() {}
func (*FileEntry) entry()   {}

// EntryKey returns the key of either variant.
func EntryKey(e Entry) string {
	switch v := e.(type) {
	case *FolderEntry:
		return v.Key
	case *FileEntry:
		return v.Key
	}
	return ""
}

// EntryName returns the display name of either variant.
func EntryName(e Entry) string {
	switch v := e.(type) {
	case *FolderEntry:
		return v.Name
	case *FileEntry:
		return v.Name
	}
	return ""
}

// EntryType returns TypeFolder for folders and the file category otherwise.
func EntryType(e Entry) FileType {
	if f, ok := e.(*FileEntry); ok {
		return f.Type
	}
	return TypeFolder
}

// IsFolder reports whether e is a synthetic folder.
func IsFolder(e Entry) bool {
	_, ok := e.(*FolderEntry)
	return ok
}

// IsFolderKey reports whether key denotes a synthetic folder.
func IsFolderKey(key string) bool {
	return strings.HasSuffix(key, "/")
}

// baseName returns the last "/"-separated segment of key.
func baseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
