package testgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// GenerateEPUB creates an EPUB at dir/filename and returns its path. The archive holds a mimetype entry,
// META-INF/container.xml, the package document and one chapter.
func GenerateEPUB(t *testing.T, dir, filename string, opts EPUBOptions) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, BuildEPUB(t, opts), 0600); err != nil {
		t.Fatalf("failed to write EPUB file: %v", err)
	}
	return path
}

// BuildEPUB returns the bytes of an EPUB archive built from opts.
func BuildEPUB(t *testing.T, opts EPUBOptions) []byte {
	t.Helper()

	opfPath := opts.OPFPath
	if opfPath == "" {
		opfPath = "OEBPS/content.opf"
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// mimetype must be first and uncompressed
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("failed to create mimetype entry: %v", err)
	}
	if _, err := w.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("failed to write mimetype: %v", err)
	}

	if !opts.OmitContainer {
		container := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="%s" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`, opfPath)
		data := []byte(container)
		if opts.ContainerBOM {
			data = append([]byte{0xEF, 0xBB, 0xBF}, data...)
		}
		if err := writeZipFile(zw, "META-INF/container.xml", data); err != nil {
			t.Fatalf("failed to write container.xml: %v", err)
		}
	}

	opf := opts.PackageDocument
	if opf == "" {
		opf = BuildOPF(opts)
	}
	if err := writeZipFile(zw, opfPath, []byte(opf)); err != nil {
		t.Fatalf("failed to write package document: %v", err)
	}

	chapter := `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Chapter 1</title></head><body><p>Test.</p></body></html>`
	chapterPath := filepath.ToSlash(filepath.Join(filepath.Dir(opfPath), "chapter1.xhtml"))
	if err := writeZipFile(zw, chapterPath, []byte(chapter)); err != nil {
		t.Fatalf("failed to write chapter: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish EPUB archive: %v", err)
	}
	return buf.Bytes()
}

// BuildOPF renders the package document for opts.
func BuildOPF(opts EPUBOptions) string {
	version := opts.Version
	if version == "" {
		version = "3.0"
	}
	epub3 := strings.HasPrefix(version, "3")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8"?>
<package version="%s" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Test Book</dc:title>
    <dc:identifier id="bookid">urn:uuid:test-book-id</dc:identifier>
    <dc:language>en</dc:language>
`, version)

	var refines bytes.Buffer
	for i, c := range opts.Creators {
		if !epub3 {
			attrs := ""
			if c.Role != "" {
				attrs += fmt.Sprintf(` opf:role="%s"`, escapeXML(c.Role))
			}
			if c.FileAs != "" {
				attrs += fmt.Sprintf(` opf:file-as="%s"`, escapeXML(c.FileAs))
			}
			fmt.Fprintf(&buf, "    <dc:creator%s>%s</dc:creator>\n", attrs, escapeXML(c.Name))
			continue
		}

		id := creatorID(c, i)
		fmt.Fprintf(&buf, "    <dc:creator id=\"%s\">%s</dc:creator>\n", id, escapeXML(c.Name))
		if c.FileAs != "" {
			fmt.Fprintf(&refines, "    <meta refines=\"#%s\" property=\"file-as\">%s</meta>\n", id, escapeXML(c.FileAs))
		}
		if c.Role != "" {
			fmt.Fprintf(&refines, "    <meta refines=\"#%s\" property=\"role\" scheme=\"marc:relators\">%s</meta>\n", id, escapeXML(c.Role))
		}
	}

	for _, s := range opts.Subjects {
		fmt.Fprintf(&buf, "    <dc:subject>%s</dc:subject>\n", escapeXML(s))
	}

	// Refining metas go after everything else, as most producers emit them.
	buf.Write(refines.Bytes())

	if opts.Series != "" {
		if epub3 && !opts.CalibreSeries {
			fmt.Fprintf(&buf, "    <meta property=\"belongs-to-collection\" id=\"series\">%s</meta>\n", escapeXML(opts.Series))
			buf.WriteString("    <meta refines=\"#series\" property=\"collection-type\">series</meta>\n")
			if opts.SeriesIndex != "" {
				fmt.Fprintf(&buf, "    <meta refines=\"#series\" property=\"group-position\">%s</meta>\n", escapeXML(opts.SeriesIndex))
			}
		} else {
			fmt.Fprintf(&buf, "    <meta name=\"calibre:series\" content=\"%s\"/>\n", escapeXML(opts.Series))
			if opts.SeriesIndex != "" {
				fmt.Fprintf(&buf, "    <meta name=\"calibre:series_index\" content=\"%s\"/>\n", escapeXML(opts.SeriesIndex))
			}
		}
	}

	buf.WriteString(`  </metadata>
  <manifest>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chapter1"/>
  </spine>
</package>`)

	return buf.String()
}

func creatorID(c Creator, i int) string {
	if c.ID != "" {
		return c.ID
	}
	return fmt.Sprintf("creator%d", i+1)
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
