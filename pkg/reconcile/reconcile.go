// Package reconcile decides which stored book fields are stale compared to what the book's package document
// says. It only computes corrections; applying them is up to the caller.
package reconcile

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shishobooks/bookmend/pkg/epub"
	"github.com/shishobooks/bookmend/pkg/models"
	"github.com/shishobooks/bookmend/pkg/sortname"
)

const (
	sortSeparator    = " & "
	displaySeparator = ", "
	nullLetter       = "\x00"
)

type Reconciler struct {
	// FillMissingSortKeys derives a "Last, First" sort key for authors whose package document has none.
	FillMissingSortKeys bool
}

// Result holds the corrections for one book, in rule order, along with the counters they bump.
type Result struct {
	Intents []Intent
	Stats   Statistics
}

// Reconcile compares one stored book against its extracted metadata. A nil md yields an empty result.
//
// Staleness is decided by substring containment rather than equality: a stored value that still contains
// every extracted name is considered current. The display string additionally has to match the candidate's
// length, which catches a stored "Jo, Jo" against a candidate "Jo, Jo Smith". A book whose document names no
// author therefore gets its stored display string cleared.
func (r Reconciler) Reconcile(book *models.StoredBook, md *epub.Metadata) Result {
	var res Result
	if md == nil {
		return res
	}

	authors := md.Authors
	if r.FillMissingSortKeys {
		authors = fillSortKeys(authors)
	}

	keys := sortKeys(authors)
	candidateSort := CandidateSort(authors)

	if !containsAll(book.FirstAuthor, keys) {
		res.add(Intent{BookID: book.ID, Kind: SetFirstAuthor, Value: candidateSort})
		res.Stats.AuthorsFixed++
	}

	letter := FirstLetter(candidateSort)
	if letter != "" && letter != nullLetter && letter != book.FirstAuthorLetter {
		res.add(Intent{BookID: book.ID, Kind: SetFirstAuthorLetter, Value: letter})
		res.Stats.SortingFixed++
	}

	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Name)
	}
	candidateDisplay := CandidateDisplay(authors)
	if !containsAll(book.Author, names) || len(candidateDisplay) != len(book.Author) {
		res.add(Intent{BookID: book.ID, Kind: SetAuthor, Value: candidateDisplay})
		res.Stats.AuthorsFixed++
	}

	if book.Genre == "" && md.Genre != "" {
		res.add(Intent{BookID: book.ID, Kind: LinkGenre, Value: md.Genre})
		res.Stats.GenresFixed++
	}

	if book.Series == "" && md.Series.Name != "" {
		res.add(Intent{BookID: book.ID, Kind: SetSeries, Value: md.Series.Name, SeriesIndex: md.Series.Index})
		res.Stats.SeriesFixed++
	}

	return res
}

func (res *Result) add(i Intent) {
	res.Intents = append(res.Intents, i)
}

// CandidateSort joins the distinct non-empty sort keys in byte order, so the result doesn't depend on the order
// of the creators in the document.
func CandidateSort(authors []epub.Author) string {
	keys := sortKeys(authors)
	sort.Strings(keys)
	return strings.Join(keys, sortSeparator)
}

// CandidateDisplay joins the author names in document order.
func CandidateDisplay(authors []epub.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Name)
	}
	return strings.Join(names, displaySeparator)
}

// FirstLetter is the upper-cased first character of a sort string, or "" for an empty one.
func FirstLetter(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return ""
	}
	return strings.ToUpper(string(r))
}

func sortKeys(authors []epub.Author) []string {
	seen := make(map[string]struct{}, len(authors))
	keys := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.SortKey == "" {
			continue
		}
		if _, ok := seen[a.SortKey]; ok {
			continue
		}
		seen[a.SortKey] = struct{}{}
		keys = append(keys, a.SortKey)
	}
	return keys
}

func containsAll(stored string, values []string) bool {
	for _, v := range values {
		if !strings.Contains(stored, v) {
			return false
		}
	}
	return true
}

func fillSortKeys(authors []epub.Author) []epub.Author {
	filled := make([]epub.Author, len(authors))
	for i, a := range authors {
		if a.SortKey == "" {
			a.SortKey = sortname.ForPerson(a.Name)
		}
		filled[i] = a
	}
	return filled
}
