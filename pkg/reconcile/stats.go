package reconcile

// Statistics tallies what a fix pass did.
type Statistics struct {
	AuthorsFixed      int `json:"authors_fixed"`
	SortingFixed      int `json:"sorting_fixed"`
	GenresFixed       int `json:"genres_fixed"`
	SeriesFixed       int `json:"series_fixed"`
	GhostBooksCleaned int `json:"ghost_books_cleaned"`
	DRMSkipped        int `json:"drm_skipped"`
	BooksSkipped      int `json:"books_skipped"`
}

func (s *Statistics) Add(o Statistics) {
	s.AuthorsFixed += o.AuthorsFixed
	s.SortingFixed += o.SortingFixed
	s.GenresFixed += o.GenresFixed
	s.SeriesFixed += o.SeriesFixed
	s.GhostBooksCleaned += o.GhostBooksCleaned
	s.DRMSkipped += o.DRMSkipped
	s.BooksSkipped += o.BooksSkipped
}

// AnythingFixed reports whether the pass changed the store. Skipped books don't count.
func (s Statistics) AnythingFixed() bool {
	return s.AuthorsFixed != 0 ||
		s.SortingFixed != 0 ||
		s.GenresFixed != 0 ||
		s.SeriesFixed != 0 ||
		s.GhostBooksCleaned != 0
}
