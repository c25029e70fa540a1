// Package report renders the outcome of a fix pass for people and for scripts.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/bookmend/pkg/config"
	"github.com/shishobooks/bookmend/pkg/reconcile"
	"github.com/shishobooks/bookmend/pkg/worker"
)

const (
	IntroText = "PocketBook has sometimes problems parsing metadata.\n" +
		"This app tries to fix some of these issues.\n" +
		"(Note: The database file explorer-3.db will be altered!)\n" +
		"\n" +
		"Please be patient - this might take a while.\n" +
		"You will see a blank screen during the process.\n" +
		"\n" +
		"Proceed?"
	NothingFixedText = "The database seems to be ok.\nNothing had to be fixed."
)

// Summary is the short statistics block shown at the end of a pass.
func Summary(stats reconcile.Statistics) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Authors fixed: %d\n", stats.AuthorsFixed)
	fmt.Fprintf(&sb, "Sorting fixed: %d\n", stats.SortingFixed)
	fmt.Fprintf(&sb, "Genres fixed:  %d\n", stats.GenresFixed)
	fmt.Fprintf(&sb, "Series fixed:  %d\n", stats.SeriesFixed)
	fmt.Fprintf(&sb, "Books cleaned from DB: %d", stats.GhostBooksCleaned)
	if stats.DRMSkipped > 0 {
		fmt.Fprintf(&sb, "\nDRM protected books skipped: %d", stats.DRMSkipped)
	}
	if stats.BooksSkipped > 0 {
		fmt.Fprintf(&sb, "\nUnreadable books skipped: %d", stats.BooksSkipped)
	}
	return sb.String()
}

// Message is what the user is told after a pass.
func Message(res *worker.Result) string {
	if !res.Stats.AnythingFixed() {
		return NothingFixedText
	}
	return Summary(res.Stats)
}

// Write renders res to w in the given format.
func Write(w io.Writer, format string, res *worker.Result) error {
	switch format {
	case config.ReportJSON:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return errors.WithStack(err)
	case config.ReportText, "":
		var sb strings.Builder
		if res.DryRun {
			sb.WriteString("Dry run, nothing was written.\n")
		}
		sb.WriteString(Summary(res.Stats))
		sb.WriteString("\n")
		_, err := io.WriteString(w, sb.String())
		return errors.WithStack(err)
	default:
		return errors.Errorf("unknown report format %q", format)
	}
}
