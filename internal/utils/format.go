// Package utils holds small helpers shared by the server and the CLI.
package utils

import "fmt"

// FormatBytes renders a byte count with binary units, e.g. "1.5 GB".
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatFileSize is FormatBytes for object sizes. Negative sizes read as 0 B.
func FormatFileSize(size int64) string {
	if size < 0 {
		return "0 B"
	}
	return FormatBytes(uint64(size))
}

// FormatSelection summarises a selection as "3 items (1.5 KB)".
func FormatSelection(count int, size int64) string {
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	return fmt.Sprintf("%d %s (%s)", count, noun, FormatFileSize(size))
}
