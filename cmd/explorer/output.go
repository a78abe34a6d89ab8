package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/damacus/iron-explorer/internal/browser"
	"github.com/damacus/iron-explorer/internal/utils"
)

const timeLayout = "2006-01-02 15:04"

// printEntries writes one aligned row per entry. Search results show full
// keys since they come from many folders.
func printEntries(out io.Writer, entries []browser.Entry, fullPaths bool) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNAME\tSIZE\tMODIFIED")
	for _, e := range entries {
		switch v := e.(type) {
		case *browser.FolderEntry:
			name := v.Name + "/"
			if fullPaths {
				name = v.Key
			}
			fmt.Fprintf(w, "%s\t%s\t-\t-\n", browser.TypeFolder, name)
		case *browser.FileEntry:
			name := v.Name
			if fullPaths {
				name = v.Key
			}
			modified := "-"
			if !v.LastModified.IsZero() {
				modified = v.LastModified.Local().Format(timeLayout)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Type, name, utils.FormatFileSize(v.Size), modified)
		}
	}
	return w.Flush()
}
