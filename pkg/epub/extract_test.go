package epub

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/shishobooks/bookmend/internal/testgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_CurrentDialect(t *testing.T) {
	t.Parallel()
	dir := testgen.TempDir(t, "epub-extract-*")
	path := testgen.GenerateEPUB(t, dir, "book.epub", testgen.EPUBOptions{
		Creators: []testgen.Creator{
			{Name: "Jane Doe", ID: "c1", FileAs: "Doe, Jane", Role: "aut"},
			{Name: "Ed Itor", FileAs: "Itor, Ed", Role: "edt"},
		},
		Subjects:    []string{"Fiction"},
		Series:      "Saga",
		SeriesIndex: "4",
	})

	md, err := NewExtractor(OSFileAccessor{}).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, DialectCurrent, md.Dialect)
	assert.Equal(t, []Author{{Name: "Jane Doe", SortKey: "Doe, Jane"}}, md.Authors)
	assert.Equal(t, "Fiction", md.Genre)
	assert.Equal(t, Series{Name: "Saga", Index: 4}, md.Series)
}

func TestExtract_LegacyDialect(t *testing.T) {
	t.Parallel()
	dir := testgen.TempDir(t, "epub-extract-*")
	path := testgen.GenerateEPUB(t, dir, "book.epub", testgen.EPUBOptions{
		Version: "2.0",
		Creators: []testgen.Creator{
			{Name: "Isaac Asimov", FileAs: "Asimov, Isaac", Role: "aut"},
		},
		Series:      "Foundation",
		SeriesIndex: "1.0",
	})

	md, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, DialectLegacy, md.Dialect)
	assert.Equal(t, []Author{{Name: "Isaac Asimov", SortKey: "Asimov, Isaac"}}, md.Authors)
	assert.Equal(t, Series{Name: "Foundation", Index: 1}, md.Series)
}

func TestExtract_Failures(t *testing.T) {
	t.Parallel()
	dir := testgen.TempDir(t, "epub-extract-*")

	notZip := testgen.WriteFile(t, dir, "plain.epub", []byte("definitely not a zip archive"))
	noContainer := testgen.GenerateEPUB(t, dir, "nocontainer.epub", testgen.EPUBOptions{OmitContainer: true})
	badPackage := testgen.GenerateEPUB(t, dir, "badpackage.epub", testgen.EPUBOptions{
		PackageDocument: `<package version="3.0"><metadata><dc:creator </package>`,
	})

	tests := []struct {
		name string
		path string
		err  error
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.epub"), err: ErrArchiveUnreadable},
		{name: "directory", path: dir, err: ErrArchiveUnreadable},
		{name: "not a zip", path: notZip, err: ErrArchiveUnreadable},
		{name: "no container", path: noContainer, err: ErrArchiveUnreadable},
		{name: "malformed package", path: badPackage, err: ErrMalformedPackage},
	}

	extractor := NewExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := extractor.Extract(context.Background(), tt.path)
			assert.Nil(t, md)
			require.ErrorIs(t, err, tt.err)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.NotEmpty(t, e.Path)
		})
	}
}

type memoryAccessor map[string][]byte

type memoryFile struct {
	*bytes.Reader
}

func (memoryFile) Close() error { return nil }

func (m memoryAccessor) Open(path string) (File, error) {
	data, ok := m[path]
	if !ok {
		return nil, assert.AnError
	}
	return memoryFile{bytes.NewReader(data)}, nil
}

func TestExtract_CustomAccessor(t *testing.T) {
	t.Parallel()
	accessor := memoryAccessor{
		"/mnt/ext1/Books/a.epub": testgen.BuildEPUB(t, testgen.EPUBOptions{
			Creators: []testgen.Creator{{Name: "Solo Writer", Role: "aut"}},
		}),
	}

	md, err := NewExtractor(accessor).Extract(context.Background(), "/mnt/ext1/Books/a.epub")
	require.NoError(t, err)
	assert.Equal(t, []Author{{Name: "Solo Writer"}}, md.Authors)

	_, err = NewExtractor(accessor).Extract(context.Background(), "/mnt/ext1/Books/b.epub")
	require.ErrorIs(t, err, ErrArchiveUnreadable)
}
