// Package zip builds in-memory zip archives for project downloads.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Entry is one file to place in the archive.
type Entry struct {
	Path string
	Data []byte
}

// Archive writes the entries into a zip archive and returns its bytes.
// Paths are normalized to forward slashes and emitted in sorted order so
// the same input always produces the same archive layout.
func Archive(entries []Entry) ([]byte, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range sorted {
		name := path.Clean(strings.ReplaceAll(e.Path, `\`, "/"))
		if name == "" || name == "." || strings.HasPrefix(name, "../") || strings.HasPrefix(name, "/") {
			return nil, fmt.Errorf("zip: invalid entry path %q", e.Path)
		}
		f, err := w.Create(name)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := f.Write(e.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
