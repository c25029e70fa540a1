package epub

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RoleAuthor is the MARC relator code for an author. Only contributors resolving to it are reported.
const RoleAuthor = "aut"

// Dialect is the package document schema generation, decided once from the root element.
type Dialect int

const (
	// DialectLegacy covers EPUB 2 package documents: role and sort key live in attributes on dc:creator.
	DialectLegacy Dialect = iota
	// DialectCurrent covers EPUB 3 package documents: role and sort key live in separate meta elements that
	// point back at the creator through refines.
	DialectCurrent
)

func (d Dialect) String() string {
	if d == DialectCurrent {
		return "epub3"
	}
	return "epub2"
}

type Author struct {
	Name    string `json:"name"`
	SortKey string `json:"sort_key,omitempty"`
}

type Series struct {
	Name  string `json:"name,omitempty"`
	Index int    `json:"index,omitempty"`
}

// Metadata is what a single package document says about a book.
type Metadata struct {
	Dialect Dialect
	Authors []Author
	Genre   string
	Series  Series
}

// ParsePackage extracts authors, genre and series from the raw bytes of a package document.
func ParsePackage(data []byte) (*Metadata, error) {
	state := newParserState()
	err := scanEvents(data, func(ev event) bool {
		state.handle(ev)
		return true
	})
	if err != nil {
		return nil, newError(KindMalformedPackage, "", err)
	}
	return state.metadata(), nil
}

type captureTarget int

const (
	captureNone captureTarget = iota
	captureName
	captureFileAs
	captureRole
	captureGenre
	captureCollection
	captureGroupPosition
)

// contributor accumulates everything known about one dc:creator.
type contributor struct {
	creator bool
	name    string
	sortKey string
	role    string
}

type seriesCandidate struct {
	name     string
	index    int
	hasIndex bool
}

// parserState is threaded through a single forward scan. Fields that span several elements (the contributor
// table, the pending capture) live here rather than in the scan loop so the scan can be driven by hand.
type parserState struct {
	dialect     Dialect
	sawPackage  bool
	depth       int
	creators    int
	contributor map[string]*contributor
	order       []string

	pending      captureTarget
	pendingKey   string
	pendingDepth int
	text         strings.Builder

	genre      string
	collection seriesCandidate
	calibre    seriesCandidate
}

func newParserState() *parserState {
	return &parserState{contributor: map[string]*contributor{}}
}

func (s *parserState) handle(ev event) {
	switch ev.kind {
	case eventStart:
		s.depth++
		s.start(ev)
	case eventText:
		if s.pending != captureNone {
			s.text.WriteString(ev.text)
		}
	case eventEnd:
		if s.pending != captureNone && s.depth == s.pendingDepth {
			s.commit(strings.TrimSpace(s.text.String()))
		}
		s.depth--
	case eventEOF:
		// Anything still pending belongs to an element that was never closed.
		s.pending = captureNone
		s.text.Reset()
	}
}

func (s *parserState) arm(target captureTarget, key string) {
	if s.pending != captureNone {
		return
	}
	s.pending = target
	s.pendingKey = key
	s.pendingDepth = s.depth
	s.text.Reset()
}

func (s *parserState) start(ev event) {
	switch ev.name {
	case "package":
		if s.sawPackage {
			return
		}
		s.sawPackage = true
		if v, ok := ev.attr("version"); ok && strings.HasPrefix(strings.TrimSpace(v), "3") {
			s.dialect = DialectCurrent
		}
	case "creator":
		s.startCreator(ev)
	case "subject":
		if s.genre == "" {
			s.arm(captureGenre, "")
		}
	case "meta":
		s.startMeta(ev)
	}
}

// entry returns the contributor for key, creating it on first reference. A refining meta may legally appear
// before its creator, so entries are created by either side.
func (s *parserState) entry(key string) *contributor {
	c, ok := s.contributor[key]
	if !ok {
		c = &contributor{}
		s.contributor[key] = c
	}
	return c
}

func (s *parserState) startCreator(ev event) {
	s.creators++

	switch s.dialect {
	case DialectCurrent:
		key := fmt.Sprintf("#creator-%d", s.creators)
		if id, ok := ev.attr("id"); ok && strings.TrimSpace(id) != "" {
			key = "#" + strings.TrimSpace(id)
		}
		c := s.entry(key)
		if c.creator {
			// Duplicate id; keep the first creator's position and treat this one as anonymous.
			key = fmt.Sprintf("#creator-%d", s.creators)
			c = s.entry(key)
		}
		// Role and sort key only ever come from refining metas here.
		c.creator = true
		s.order = append(s.order, key)
		s.arm(captureName, key)
	default:
		key := fmt.Sprintf("creator-%d", s.creators)
		c := s.entry(key)
		c.creator = true

		fileAs, hasFileAs := ev.attrWithSuffix("file-as")
		if hasFileAs {
			c.sortKey = strings.TrimSpace(fileAs.value)
		}
		c.role = legacyRole(ev, hasFileAs)

		s.order = append(s.order, key)
		s.arm(captureName, key)
	}
}

// legacyRole resolves the role of an EPUB 2 creator. Documents that never annotate roles are common, so a
// missing or empty role attribute means author. An unknown relator code is trusted only when the creator also
// has a sort key, which nearly every tool writes for authors and rarely for anyone else.
func legacyRole(ev event, hasFileAs bool) string {
	a, ok := ev.attrWithSuffix("role")
	if !ok {
		return RoleAuthor
	}
	role := strings.TrimSpace(a.value)
	if role == "" {
		return RoleAuthor
	}
	if !IsKnownRelator(role) && hasFileAs {
		return RoleAuthor
	}
	return role
}

func (s *parserState) startMeta(ev event) {
	if property, ok := ev.attr("property"); ok {
		property = strings.TrimSpace(property)
		refines, _ := ev.attr("refines")
		refines = strings.TrimSpace(refines)
		if refines != "" && !strings.HasPrefix(refines, "#") {
			refines = "#" + refines
		}

		switch {
		case strings.HasSuffix(property, "belongs-to-collection"):
			if s.collection.name == "" {
				s.arm(captureCollection, "")
			}
			return
		case strings.HasSuffix(property, "group-position"):
			// The first position wins, whichever collection it refines.
			if !s.collection.hasIndex {
				s.arm(captureGroupPosition, "")
			}
			return
		}

		if s.dialect == DialectCurrent && refines != "" {
			switch {
			case strings.HasSuffix(property, "file-as"):
				s.arm(captureFileAs, refines)
			case strings.HasSuffix(property, "role"):
				s.arm(captureRole, refines)
			}
		}
		return
	}

	// calibre writes series as name/content pairs, in EPUB 2 and EPUB 3 documents alike.
	name, ok := ev.attr("name")
	if !ok {
		return
	}
	content, _ := ev.attr("content")
	content = strings.TrimSpace(content)
	switch {
	case strings.HasSuffix(name, "series_index"):
		if !s.calibre.hasIndex && content != "" {
			s.calibre.index = ParseSeriesIndex(content)
			s.calibre.hasIndex = true
		}
	case strings.HasSuffix(name, "series"):
		if s.calibre.name == "" {
			s.calibre.name = content
		}
	}
}

func (s *parserState) commit(text string) {
	target, key := s.pending, s.pendingKey
	s.pending = captureNone
	s.pendingKey = ""
	s.text.Reset()

	switch target {
	case captureName:
		s.entry(key).name = text
	case captureFileAs:
		s.entry(key).sortKey = text
	case captureRole:
		s.entry(key).role = text
	case captureGenre:
		if s.genre == "" {
			s.genre = text
		}
	case captureCollection:
		s.collection.name = text
	case captureGroupPosition:
		if text != "" {
			s.collection.index = ParseSeriesIndex(text)
			s.collection.hasIndex = true
		}
	}
}

func (s *parserState) metadata() *Metadata {
	md := &Metadata{
		Dialect: s.dialect,
		Authors: []Author{},
		Genre:   s.genre,
	}

	for _, key := range s.order {
		c := s.contributor[key]
		if c.name == "" || c.role != RoleAuthor {
			continue
		}
		md.Authors = append(md.Authors, Author{Name: c.name, SortKey: c.sortKey})
	}

	switch {
	case s.collection.name != "":
		md.Series = Series{Name: s.collection.name, Index: s.collection.index}
	case s.calibre.name != "":
		md.Series = Series{Name: s.calibre.name, Index: s.calibre.index}
	}

	return md
}

// ParseSeriesIndex turns a series position into an integer. Fractional positions ("2.5") are truncated toward
// zero and anything unparsable is 0.
func ParseSeriesIndex(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}
