package reconcile

import "fmt"

// IntentKind names the stored field an Intent corrects.
type IntentKind string

const (
	SetFirstAuthor       IntentKind = "set_firstauthor"
	SetFirstAuthorLetter IntentKind = "set_first_author_letter"
	SetAuthor            IntentKind = "set_author"
	LinkGenre            IntentKind = "link_genre"
	SetSeries            IntentKind = "set_series"
)

// Intent is one field correction for one stored book. SeriesIndex is only meaningful for SetSeries.
type Intent struct {
	BookID      int        `json:"book_id"`
	Kind        IntentKind `json:"kind"`
	Value       string     `json:"value"`
	SeriesIndex int        `json:"series_index,omitempty"`
}

func (i Intent) String() string {
	if i.Kind == SetSeries {
		return fmt.Sprintf("book %d: %s = %q #%d", i.BookID, i.Kind, i.Value, i.SeriesIndex)
	}
	return fmt.Sprintf("book %d: %s = %q", i.BookID, i.Kind, i.Value)
}
