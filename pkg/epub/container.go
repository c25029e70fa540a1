package epub

import (
	"archive/zip"
	"io"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ContainerPath is the fixed location of the container document inside every EPUB.
const ContainerPath = "META-INF/container.xml"

// FindRootfile returns the full-path of the first rootfile declared in the archive's container document.
func FindRootfile(zr *zip.Reader) (string, error) {
	data, err := readEntry(zr, ContainerPath)
	if err != nil {
		return "", err
	}
	return ParseContainer(data)
}

// ParseContainer scans a container document for the first rootfile element carrying a full-path attribute.
func ParseContainer(data []byte) (string, error) {
	var fullPath string
	err := scanEvents(data, func(ev event) bool {
		if ev.kind != eventStart || ev.name != "rootfile" {
			return true
		}
		if p, ok := ev.attr("full-path"); ok && p != "" {
			fullPath = p
			return false
		}
		return true
	})
	if err != nil {
		return "", newError(KindMalformedContainer, ContainerPath, err)
	}
	if fullPath == "" {
		return "", newError(KindMalformedContainer, ContainerPath, errors.New("no rootfile with a full-path attribute"))
	}
	return fullPath, nil
}

// lookupEntry finds an archive member by name. Rootfile paths are IRIs, so a percent-encoded name is tried as
// well as a leading "./".
func lookupEntry(zr *zip.Reader, name string) *zip.File {
	candidates := []string{name, strings.TrimPrefix(name, "./")}
	if unescaped, err := url.PathUnescape(name); err == nil {
		candidates = append(candidates, unescaped)
	}
	for _, candidate := range candidates {
		for _, f := range zr.File {
			if f.Name == candidate {
				return f
			}
		}
	}
	return nil
}

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	entry := lookupEntry(zr, name)
	if entry == nil {
		return nil, newError(KindArchiveUnreadable, name, errors.New("entry not found in archive"))
	}

	f, err := entry.Open()
	if err != nil {
		return nil, newError(KindArchiveUnreadable, name, errors.WithStack(err))
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, newError(KindArchiveUnreadable, name, errors.WithStack(err))
	}
	return b, nil
}
