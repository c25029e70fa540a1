package epub

import (
	"archive/zip"
	"context"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const epubMimeType = "application/epub+zip"

// File is an open book file.
type File interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// FileAccessor resolves a stored file path to its bytes. It never interprets mount points; the path is used
// exactly as given.
type FileAccessor interface {
	Open(path string) (File, error)
}

type osFile struct {
	*os.File
	size int64
}

func (f *osFile) Size() int64 {
	return f.size
}

// OSFileAccessor reads book files from the local filesystem.
type OSFileAccessor struct{}

func (OSFileAccessor) Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.WithStack(err)
	}
	if stats.IsDir() {
		f.Close()
		return nil, errors.Errorf("%s is a directory", path)
	}
	return &osFile{File: f, size: stats.Size()}, nil
}

// Extractor runs the whole extraction for one book file: container lookup, then package parsing. It holds no
// per-book state and is safe for concurrent use as long as its FileAccessor is.
type Extractor struct {
	files FileAccessor
}

func NewExtractor(files FileAccessor) *Extractor {
	if files == nil {
		files = OSFileAccessor{}
	}
	return &Extractor{files}
}

// Parse extracts metadata from an EPUB on the local filesystem.
func Parse(path string) (*Metadata, error) {
	return NewExtractor(nil).Extract(context.Background(), path)
}

// Extract returns the metadata of the book at path. Every error it returns is an *Error and means the book has
// no usable metadata for this pass.
func (x *Extractor) Extract(ctx context.Context, path string) (*Metadata, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})

	f, err := x.files.Open(path)
	if err != nil {
		return nil, newError(KindArchiveUnreadable, path, err)
	}
	defer f.Close()

	// A wrong mimetype entry is common and harmless, so it's only worth a warning.
	mtype, err := mimetype.DetectReader(io.NewSectionReader(f, 0, f.Size()))
	if err == nil && !mtype.Is(epubMimeType) {
		log.Warn("file does not look like an epub", logger.Data{"mimetype": mtype.String()})
	}

	zr, err := zip.NewReader(f, f.Size())
	if err != nil {
		return nil, newError(KindArchiveUnreadable, path, errors.WithStack(err))
	}

	rootfile, err := FindRootfile(zr)
	if err != nil {
		return nil, err
	}

	data, err := readEntry(zr, rootfile)
	if err != nil {
		return nil, err
	}

	md, err := ParsePackage(data)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Path = rootfile
		}
		return nil, err
	}

	log.Debug("extracted metadata", logger.Data{
		"rootfile": rootfile,
		"dialect":  md.Dialect.String(),
		"authors":  len(md.Authors),
	})
	return md, nil
}
