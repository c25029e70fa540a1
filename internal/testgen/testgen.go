// Package testgen builds EPUB files on the fly for tests of the extraction pipeline and the fix pass.
package testgen

import (
	"os"
	"path/filepath"
	"testing"
)

// Creator is one dc:creator element.
type Creator struct {
	Name   string
	ID     string // EPUB 3 only; generated when empty
	FileAs string
	Role   string
}

// EPUBOptions configures the generated EPUB file.
type EPUBOptions struct {
	Version     string // defaults to "3.0"
	Creators    []Creator
	Subjects    []string
	Series      string
	SeriesIndex string
	// CalibreSeries writes the series as calibre:series metas instead of belongs-to-collection.
	CalibreSeries bool

	OPFPath       string // defaults to "OEBPS/content.opf"
	ContainerBOM  bool
	OmitContainer bool
	// PackageDocument replaces the generated package document verbatim.
	PackageDocument string
}

// TempDir creates a temporary directory for testing and registers cleanup.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// WriteFile creates a file with the given content in the specified directory.
// Returns the full path to the created file.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// MkdirAll creates dir and any missing parents.
func MkdirAll(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir %s: %v", dir, err)
	}
}
