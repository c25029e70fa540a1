// Package worker runs fix passes over the reader's library database.
package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookmend/pkg/config"
	"github.com/shishobooks/bookmend/pkg/epub"
	"github.com/shishobooks/bookmend/pkg/library"
	"github.com/shishobooks/bookmend/pkg/reconcile"
	"github.com/uptrace/bun"
)

type Worker struct {
	config *config.Config
	log    logger.Logger

	libraryService *library.Service
	extractor      *epub.Extractor
	reconciler     reconcile.Reconciler
	drm            reconcile.DRMPolicy
}

func New(cfg *config.Config, db *bun.DB) *Worker {
	return NewWithFiles(cfg, db, epub.OSFileAccessor{})
}

// NewWithFiles is New with a custom way of opening book files.
func NewWithFiles(cfg *config.Config, db *bun.DB, files epub.FileAccessor) *Worker {
	return &Worker{
		config: cfg,
		log:    logger.New(),

		libraryService: library.NewService(db),
		extractor:      epub.NewExtractor(files),
		reconciler:     reconcile.Reconciler{FillMissingSortKeys: cfg.FillMissingSortKeys},
		drm:            reconcile.DRMPolicy{Folders: cfg.DRMFolders},
	}
}

// Result is what one fix pass did, or would have done on a dry run.
type Result struct {
	RunID        string               `json:"run_id"`
	DryRun       bool                 `json:"dry_run"`
	Stats        reconcile.Statistics `json:"stats"`
	Intents      []reconcile.Intent   `json:"intents"`
	GhostBookIDs []int                `json:"ghost_book_ids"`
	Schema       string               `json:"schema"`
}

// ProcessFixPass lists every book, re-reads its package document, applies the corrections and sweeps ghost
// books, all in one transaction. Unreadable books are skipped; any store error rolls everything back.
func (w *Worker) ProcessFixPass(ctx context.Context) (*Result, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	log := w.log.ID(id.String()).Root(logger.Data{"dry_run": w.config.DryRun})
	ctx = log.WithContext(ctx)

	log.Info("processing fix pass")

	res := &Result{RunID: id.String(), DryRun: w.config.DryRun}
	err = w.libraryService.WithPass(ctx, library.PassOptions{DryRun: w.config.DryRun}, func(ctx context.Context, p *library.Pass) error {
		res.Schema = p.Schema().String()

		books, err := p.ListBooks(ctx, library.ListBooksOptions{
			StorageID: w.config.StorageID,
			Extension: w.config.BookExtension,
		})
		if err != nil {
			return err
		}
		log.Info("processing books", logger.Data{"count": len(books)})

		extracted, err := w.extractAll(ctx, books)
		if err != nil {
			return err
		}

		for i, book := range books {
			ex := extracted[i]
			switch {
			case ex.drm:
				res.Stats.DRMSkipped++
				continue
			case ex.err != nil:
				res.Stats.BooksSkipped++
				continue
			}

			outcome := w.reconciler.Reconcile(book, ex.md)
			for _, intent := range outcome.Intents {
				log.Info("fixing book", logger.Data{"book_id": book.ID, "field": string(intent.Kind), "value": intent.Value})
				if err := p.Apply(ctx, intent); err != nil {
					return err
				}
			}
			res.Intents = append(res.Intents, outcome.Intents...)
			res.Stats.Add(outcome.Stats)
		}

		ghosts, err := p.SweepGhostBooks(ctx)
		if err != nil {
			return err
		}
		if len(ghosts) > 0 {
			log.Info("removed ghost books", logger.Data{"book_ids": ghosts})
		}
		res.GhostBookIDs = ghosts
		res.Stats.GhostBooksCleaned = len(ghosts)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "fix pass")
	}

	log.Info("finished fix pass", logger.Data{
		"authors_fixed":       res.Stats.AuthorsFixed,
		"sorting_fixed":       res.Stats.SortingFixed,
		"genres_fixed":        res.Stats.GenresFixed,
		"series_fixed":        res.Stats.SeriesFixed,
		"ghost_books_cleaned": res.Stats.GhostBooksCleaned,
		"drm_skipped":         res.Stats.DRMSkipped,
		"books_skipped":       res.Stats.BooksSkipped,
	})
	return res, nil
}
