package epub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackage_LegacySingleAuthor(t *testing.T) {
	t.Parallel()
	opfXML := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Dune</dc:title>
    <dc:creator opf:role="aut" opf:file-as="Herbert, Frank">Frank Herbert</dc:creator>
  </metadata>
</package>`

	md, err := ParsePackage([]byte(opfXML))
	require.NoError(t, err)

	assert.Equal(t, DialectLegacy, md.Dialect)
	assert.Equal(t, []Author{{Name: "Frank Herbert", SortKey: "Herbert, Frank"}}, md.Authors)
}

func TestParsePackage_LegacyMultipleCreators(t *testing.T) {
	t.Parallel()
	opfXML := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:creator opf:role="aut" opf:file-as="Pratchett, Terry">Terry Pratchett</dc:creator>
    <dc:creator opf:role="edt" opf:file-as="Editor, Some">Some Editor</dc:creator>
    <dc:creator opf:role="aut" opf:file-as="Gaiman, Neil">Neil Gaiman</dc:creator>
    <dc:creator opf:role="trl">A Translator</dc:creator>
  </metadata>
</package>`

	md, err := ParsePackage([]byte(opfXML))
	require.NoError(t, err)

	assert.Equal(t, []Author{
		{Name: "Terry Pratchett", SortKey: "Pratchett, Terry"},
		{Name: "Neil Gaiman", SortKey: "Gaiman, Neil"},
	}, md.Authors)
}

func TestParsePackage_LegacyRoleResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		creator  string
		expected []Author
	}{
		{
			name:     "no role and no file-as is an author",
			creator:  `<dc:creator>Anonymous Person</dc:creator>`,
			expected: []Author{{Name: "Anonymous Person"}},
		},
		{
			name:     "file-as without role is an author",
			creator:  `<dc:creator opf:file-as="Doe, Jane">Jane Doe</dc:creator>`,
			expected: []Author{{Name: "Jane Doe", SortKey: "Doe, Jane"}},
		},
		{
			name:     "unknown role with file-as is an author",
			creator:  `<dc:creator opf:role="writer" opf:file-as="Doe, Jane">Jane Doe</dc:creator>`,
			expected: []Author{{Name: "Jane Doe", SortKey: "Doe, Jane"}},
		},
		{
			name:     "unknown role without file-as is kept as stated",
			creator:  `<dc:creator opf:role="writer">Jane Doe</dc:creator>`,
			expected: []Author{},
		},
		{
			name:     "known non-author role with file-as is excluded",
			creator:  `<dc:creator opf:role="edt" opf:file-as="Doe, Jane">Jane Doe</dc:creator>`,
			expected: []Author{},
		},
		{
			name:     "any namespace prefix",
			creator:  `<dc:creator foo:role="aut" foo:file-as="Doe, Jane">Jane Doe</dc:creator>`,
			expected: []Author{{Name: "Jane Doe", SortKey: "Doe, Jane"}},
		},
		{
			name:     "empty name is dropped",
			creator:  `<dc:creator opf:role="aut" opf:file-as="Doe, Jane"></dc:creator>`,
			expected: []Author{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opfXML := `<package version="2.0" xmlns:foo="urn:foo"><metadata>` + tt.creator + `</metadata></package>`
			md, err := ParsePackage([]byte(opfXML))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, md.Authors)
		})
	}
}

func TestParsePackage_CurrentRefines(t *testing.T) {
	t.Parallel()
	opfXML := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Good Omens</dc:title>
    <dc:creator id="c1">Terry Pratchett</dc:creator>
    <dc:creator id="c2">Neil Gaiman</dc:creator>
    <meta refines="#c2" property="role" scheme="marc:relators">aut</meta>
    <dc:creator id="c3">Some Editor</dc:creator>
    <meta refines="#c1" property="file-as">Pratchett, Terry</meta>
    <meta refines="#c3" property="role" scheme="marc:relators">edt</meta>
    <meta refines="#c2" property="file-as">Gaiman, Neil</meta>
    <meta refines="#c1" property="role" scheme="marc:relators">aut</meta>
    <meta refines="#c3" property="file-as">Editor, Some</meta>
  </metadata>
</package>`

	md, err := ParsePackage([]byte(opfXML))
	require.NoError(t, err)

	assert.Equal(t, DialectCurrent, md.Dialect)
	assert.Equal(t, []Author{
		{Name: "Terry Pratchett", SortKey: "Pratchett, Terry"},
		{Name: "Neil Gaiman", SortKey: "Gaiman, Neil"},
	}, md.Authors)
}

func TestParsePackage_CurrentWithoutRoleIsExcluded(t *testing.T) {
	t.Parallel()
	opfXML := `<package version="3.0"><metadata>
    <dc:creator id="a">First Person</dc:creator>
    <dc:creator id="b">Second Person</dc:creator>
    <meta refines="#a" property="role">aut</meta>
  </metadata></package>`

	md, err := ParsePackage([]byte(opfXML))
	require.NoError(t, err)
	assert.Equal(t, []Author{{Name: "First Person"}}, md.Authors)
}

func TestParsePackage_CurrentSoleCreatorWithoutRole(t *testing.T) {
	t.Parallel()
	opfXML := `<package version="3.0"><metadata>
    <dc:creator id="a">Only Person</dc:creator>
    <meta refines="#a" property="file-as">Person, Only</meta>
  </metadata></package>`

	md, err := ParsePackage([]byte(opfXML))
	require.NoError(t, err)
	assert.Empty(t, md.Authors)
}

func TestParsePackage_CurrentIgnoresCreatorAttributes(t *testing.T) {
	t.Parallel()
	opfXML := `<package version="3.0" xmlns:opf="http://www.idpf.org/2007/opf"><metadata>
    <dc:creator id="a" opf:role="aut" opf:file-as="One, Author">Author One</dc:creator>
    <dc:creator id="b" opf:role="aut" opf:file-as="Two, Author">Author Two</dc:creator>
    <meta refines="#b" property="role">aut</meta>
  </metadata></package>`

	md, err := ParsePackage([]byte(opfXML))
	require.NoError(t, err)
	assert.Equal(t, []Author{{Name: "Author Two"}}, md.Authors)
}

func TestParsePackage_CurrentCreatorWithoutID(t *testing.T) {
	t.Parallel()
	opfXML := `<package version="3.0"><metadata>
    <dc:creator>Nameless Id</dc:creator>
    <dc:creator id="x">With Id</dc:creator>
    <meta refines="#x" property="role">aut</meta>
  </metadata></package>`

	md, err := ParsePackage([]byte(opfXML))
	require.NoError(t, err)
	assert.Equal(t, []Author{{Name: "With Id"}}, md.Authors)
}

func TestParsePackage_Genre(t *testing.T) {
	t.Parallel()

	t.Run("first subject wins", func(t *testing.T) {
		t.Parallel()
		opfXML := `<package version="2.0"><metadata>
      <dc:subject>Fiction</dc:subject>
      <dc:subject>Fantasy</dc:subject>
    </metadata></package>`
		md, err := ParsePackage([]byte(opfXML))
		require.NoError(t, err)
		assert.Equal(t, "Fiction", md.Genre)
	})

	t.Run("empty subject does not capture following text", func(t *testing.T) {
		t.Parallel()
		opfXML := `<package version="2.0"><metadata>
      <dc:subject/>
      <dc:subject>   </dc:subject>
      <dc:subject>Horror</dc:subject>
    </metadata></package>`
		md, err := ParsePackage([]byte(opfXML))
		require.NoError(t, err)
		assert.Equal(t, "Horror", md.Genre)
	})

	t.Run("entities are decoded", func(t *testing.T) {
		t.Parallel()
		opfXML := `<package version="2.0"><metadata><dc:subject>Science &amp; Nature</dc:subject></metadata></package>`
		md, err := ParsePackage([]byte(opfXML))
		require.NoError(t, err)
		assert.Equal(t, "Science & Nature", md.Genre)
	})
}

func TestParsePackage_Series(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opf      string
		expected Series
	}{
		{
			name: "current collection",
			opf: `<package version="3.0"><metadata>
        <meta property="belongs-to-collection" id="c01">The Expanse</meta>
        <meta refines="#c01" property="collection-type">series</meta>
        <meta refines="#c01" property="group-position">3</meta>
      </metadata></package>`,
			expected: Series{Name: "The Expanse", Index: 3},
		},
		{
			name: "current fractional position truncates",
			opf: `<package version="3.0"><metadata>
        <meta property="belongs-to-collection" id="c01">Discworld</meta>
        <meta refines="#c01" property="group-position">2.5</meta>
      </metadata></package>`,
			expected: Series{Name: "Discworld", Index: 2},
		},
		{
			name: "current garbage position is zero",
			opf: `<package version="3.0"><metadata>
        <meta property="belongs-to-collection" id="c01">Discworld</meta>
        <meta refines="#c01" property="group-position">first</meta>
      </metadata></package>`,
			expected: Series{Name: "Discworld", Index: 0},
		},
		{
			name: "first position wins whatever it refines",
			opf: `<package version="3.0"><metadata>
        <meta property="belongs-to-collection" id="c1">Discworld</meta>
        <meta refines="#c2" property="group-position">3</meta>
        <meta refines="#c1" property="group-position">12</meta>
      </metadata></package>`,
			expected: Series{Name: "Discworld", Index: 3},
		},
		{
			name: "legacy calibre metas",
			opf: `<package version="2.0"><metadata>
        <meta name="calibre:series" content="Foundation"/>
        <meta name="calibre:series_index" content="2.0"/>
      </metadata></package>`,
			expected: Series{Name: "Foundation", Index: 2},
		},
		{
			name: "calibre metas in a current document",
			opf: `<package version="3.0"><metadata>
        <meta name="calibre:series" content="Foundation"/>
        <meta name="calibre:series_index" content="-1.7"/>
      </metadata></package>`,
			expected: Series{Name: "Foundation", Index: -1},
		},
		{
			name: "collection takes precedence over calibre",
			opf: `<package version="3.0"><metadata>
        <meta name="calibre:series" content="Calibre Name"/>
        <meta property="belongs-to-collection" id="s">Collection Name</meta>
      </metadata></package>`,
			expected: Series{Name: "Collection Name"},
		},
		{
			name:     "no series",
			opf:      `<package version="3.0"><metadata><dc:title>x</dc:title></metadata></package>`,
			expected: Series{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			md, err := ParsePackage([]byte(tt.opf))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, md.Series)
		})
	}
}

func TestParsePackage_TruncatedDocument(t *testing.T) {
	t.Parallel()
	opfXML := `<package version="3.0"><metadata>
    <dc:creator id="a">Jane Doe</dc:creator>
    <meta refines="#a" property="role">aut</meta>
    <dc:subject>Unfinished`

	md, err := ParsePackage([]byte(opfXML))
	require.NoError(t, err)
	assert.Equal(t, []Author{{Name: "Jane Doe"}}, md.Authors)
	assert.Empty(t, md.Genre)
}

func TestParsePackage_Malformed(t *testing.T) {
	t.Parallel()
	_, err := ParsePackage([]byte(`<package version="3.0"><metadata><dc:creator id="a">Jane</dc:creator <<`))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedPackage)
}

func TestParsePackage_Latin1(t *testing.T) {
	t.Parallel()
	// "Zoë" in ISO-8859-1
	opfXML := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><package version="2.0"><metadata><dc:creator>Zo`),
		0xEB)
	opfXML = append(opfXML, []byte(`</dc:creator></metadata></package>`)...)

	md, err := ParsePackage(opfXML)
	require.NoError(t, err)
	assert.Equal(t, []Author{{Name: "Zoë"}}, md.Authors)
}

func TestParserState_EventSequence(t *testing.T) {
	t.Parallel()
	// The meta for c1 arrives before its creator and the stream ends without closing anything.
	events := []event{
		startEvent("package", attr{name: "version", value: "3.0"}),
		startEvent("metadata"),
		startEvent("meta", attr{name: "refines", value: "#c1"}, attr{name: "property", value: "role"}),
		textEvent("aut"),
		endEvent("meta"),
		startEvent("creator", attr{prefix: "dc", name: "id", value: "c1"}),
		textEvent("  Jane "),
		textEvent("Doe\n"),
		endEvent("creator"),
		startEvent("meta", attr{name: "refines", value: "#c1"}, attr{name: "property", value: "file-as"}),
		textEvent("Doe, Jane"),
		endEvent("meta"),
		startEvent("subject"),
		textEvent("Pending"),
		{kind: eventEOF},
	}

	state := newParserState()
	for _, ev := range events {
		state.handle(ev)
	}
	md := state.metadata()

	assert.Equal(t, []Author{{Name: "Jane Doe", SortKey: "Doe, Jane"}}, md.Authors)
	assert.Empty(t, md.Genre)
}

func TestParseSeriesIndex(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"1", 1},
		{" 7 ", 7},
		{"-3", -3},
		{"2.0", 2},
		{"2.9", 2},
		{"-2.9", -2},
		{"1e2", 100},
		{"", 0},
		{"abc", 0},
		{"NaN", 0},
		{"1e40", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSeriesIndex(tt.input))
		})
	}
}
