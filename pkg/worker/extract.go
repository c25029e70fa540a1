package worker

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookmend/pkg/epub"
	"github.com/shishobooks/bookmend/pkg/models"
)

type extraction struct {
	md  *epub.Metadata
	err error
	drm bool
}

// extractAll reads the package document of every book, config.ParseWorkers at a time. The result lines up with
// books. Per-book failures are recorded, not returned.
func (w *Worker) extractAll(ctx context.Context, books []*models.StoredBook) ([]extraction, error) {
	results := make([]extraction, len(books))

	workers := w.config.ParseWorkers
	if workers < 1 {
		workers = 1
	}

	queue := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				results[idx] = w.extractBook(ctx, books[idx])
			}
		}()
	}

	var err error
feed:
	for idx := range books {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case queue <- idx:
		}
	}
	close(queue)
	wg.Wait()

	if err != nil {
		return nil, errors.WithStack(err)
	}
	return results, nil
}

func (w *Worker) extractBook(ctx context.Context, book *models.StoredBook) extraction {
	path := book.Filepath()
	log := logger.FromContext(ctx).Data(logger.Data{"book_id": book.ID, "path": path})

	if w.drm.Protected(path) {
		log.Info("skipping drm protected book")
		return extraction{drm: true}
	}

	md, err := w.extractor.Extract(log.WithContext(ctx), path)
	if err != nil {
		var e *epub.Error
		kind := "unknown"
		if errors.As(err, &e) {
			kind = string(e.Kind)
		}
		log.Warn("skipping unreadable book", logger.Data{"kind": kind, "error": err.Error()})
		return extraction{err: err}
	}
	return extraction{md: md}
}
