package epub

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type eventKind int

const (
	eventStart eventKind = iota
	eventEnd
	eventText
	eventEOF
)

// event is a namespace-agnostic view of one XML token. Element and attribute names are reduced to their local
// part, so `dc:creator`, `creator` and `opf:file-as` all look the same to the parser.
type event struct {
	kind  eventKind
	name  string
	attrs []attr
	text  string
}

type attr struct {
	prefix string
	name   string
	value  string
}

func startEvent(name string, attrs ...attr) event {
	return event{kind: eventStart, name: name, attrs: attrs}
}

func endEvent(name string) event {
	return event{kind: eventEnd, name: name}
}

func textEvent(text string) event {
	return event{kind: eventText, text: text}
}

// attr returns the value of the first attribute whose local name is exactly name.
func (e event) attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// attrWithSuffix returns the first attribute whose local name ends with suffix.
func (e event) attrWithSuffix(suffix string) (attr, bool) {
	for _, a := range e.attrs {
		if strings.HasSuffix(a.name, suffix) {
			return a, true
		}
	}
	return attr{}, false
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity
	return dec
}

// scanEvents streams the document through fn, ending with a single eventEOF. Returning false from fn stops the
// scan early without error. Raw tokens are used so a truncated document still reaches EOF with whatever was
// collected so far.
func scanEvents(data []byte, fn func(event) bool) error {
	dec := newDecoder(data)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			fn(event{kind: eventEOF})
			return nil
		}
		if err != nil {
			return errors.WithStack(err)
		}

		var ev event
		switch t := tok.(type) {
		case xml.StartElement:
			ev = event{kind: eventStart, name: t.Name.Local, attrs: make([]attr, 0, len(t.Attr))}
			for _, a := range t.Attr {
				ev.attrs = append(ev.attrs, attr{prefix: a.Name.Space, name: a.Name.Local, value: a.Value})
			}
		case xml.EndElement:
			ev = event{kind: eventEnd, name: t.Name.Local}
		case xml.CharData:
			ev = event{kind: eventText, text: string(t)}
		default:
			continue
		}
		if !fn(ev) {
			return nil
		}
	}
}
