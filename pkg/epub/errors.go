package epub

import (
	"fmt"
)

// Kind classifies why metadata could not be extracted from a book file.
type Kind string

const (
	KindArchiveUnreadable  Kind = "archive_unreadable"
	KindMalformedContainer Kind = "malformed_container"
	KindMalformedPackage   Kind = "malformed_package"
)

var (
	// ErrArchiveUnreadable matches any failure to open the file, read it as a zip archive, or open a required
	// entry inside it.
	ErrArchiveUnreadable = &Error{Kind: KindArchiveUnreadable}
	// ErrMalformedContainer matches a container document without a usable rootfile.
	ErrMalformedContainer = &Error{Kind: KindMalformedContainer}
	// ErrMalformedPackage matches a package document that isn't well-formed XML.
	ErrMalformedPackage = &Error{Kind: KindMalformedPackage}
)

// Error is returned by every extraction step. All kinds are recoverable for a single book.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (err *Error) Error() string {
	msg := string(err.Kind)
	if err.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, err.Path)
	}
	if err.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err.Err)
	}
	return msg
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Is matches on Kind only, so the package-level sentinels can be used with errors.Is.
func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.Kind == err.Kind
}
