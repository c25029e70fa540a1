// Package library reads and corrects the reader's explorer-3 library database.
package library

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookmend/pkg/genres"
	"github.com/shishobooks/bookmend/pkg/models"
	"github.com/shishobooks/bookmend/pkg/reconcile"
	"github.com/uptrace/bun"
)

var errDryRun = errors.New("dry run")

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

type PassOptions struct {
	// DryRun rolls the transaction back after fn returns successfully.
	DryRun bool
}

// Pass is everything a fix pass may do to the store. All of it happens in one transaction on one connection.
type Pass struct {
	tx      bun.Tx
	schema  SchemaCapability
	version int
	genres  *genres.Service
}

// WithPass runs fn inside a single transaction and commits if it returns nil. Foreign key checks are switched
// off on the connection for the duration, since SQLite ignores the pragma inside a transaction, and restored to
// their previous setting afterward.
func (svc *Service) WithPass(ctx context.Context, opts PassOptions, fn func(ctx context.Context, p *Pass) error) (err error) {
	log := logger.FromContext(ctx)

	conn, err := svc.db.Conn(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	defer conn.Close()

	var foreignKeys int
	if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		return errors.Wrap(err, "reading foreign_keys")
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return errors.Wrap(err, "disabling foreign_keys")
	}
	defer func() {
		_, restoreErr := conn.ExecContext(context.WithoutCancel(ctx), fmt.Sprintf("PRAGMA foreign_keys = %d", foreignKeys))
		if restoreErr != nil && err == nil {
			err = errors.Wrap(restoreErr, "restoring foreign_keys")
		}
	}()

	err = conn.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		schema, version, err := ResolveSchema(ctx, tx)
		if err != nil {
			return err
		}
		log.Debug("resolved schema", logger.Data{"version": version, "capability": schema.String()})

		p := &Pass{tx: tx, schema: schema, version: version, genres: genres.NewService(tx)}
		if err := fn(ctx, p); err != nil {
			return err
		}
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if errors.Is(err, errDryRun) {
		log.Info("dry run, rolled back")
		return nil
	}
	return err
}

func (p *Pass) Schema() SchemaCapability {
	return p.schema
}

type ListBooksOptions struct {
	StorageID int
	Extension string
}

// ListBooks returns one record per book on the given storage with the given extension, ordered by id. Books
// with several genres report the first by name.
func (p *Pass) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.StoredBook, error) {
	var books []*models.StoredBook
	err := p.tx.
		NewSelect().
		TableExpr("books_impl AS b").
		ColumnExpr("b.id").
		ColumnExpr("fo.name AS folder").
		ColumnExpr("f.filename").
		ColumnExpr("COALESCE(b.author, '') AS author").
		ColumnExpr("COALESCE(b.firstauthor, '') AS firstauthor").
		ColumnExpr("COALESCE(b.first_author_letter, '') AS first_author_letter").
		ColumnExpr("COALESCE(MIN(g.name), '') AS genre").
		ColumnExpr("COALESCE(b.series, '') AS series").
		ColumnExpr("COALESCE(b.numinseries, 0) AS numinseries").
		// A book with several file rows on the storage is read from the oldest one.
		Join("JOIN files AS f ON f.id = (SELECT MIN(f2.id) FROM files AS f2 WHERE f2.book_id = b.id AND f2.storageid = ?)", opts.StorageID).
		Join("JOIN folders AS fo ON fo.id = f.folder_id").
		Join("LEFT JOIN booktogenre AS btg ON btg.bookid = b.id").
		Join("LEFT JOIN genres AS g ON g.id = btg.genreid").
		Where("LOWER(b.ext) = LOWER(?)", opts.Extension).
		Group("b.id").
		Order("b.id").
		Scan(ctx, &books)
	if err != nil {
		return nil, errors.Wrap(err, "listing books")
	}
	return books, nil
}

// Apply writes one correction.
func (p *Pass) Apply(ctx context.Context, intent reconcile.Intent) error {
	update := func() *bun.UpdateQuery {
		return p.tx.
			NewUpdate().
			Model((*models.Book)(nil)).
			Where("id = ?", intent.BookID)
	}

	var err error
	switch intent.Kind {
	case reconcile.SetFirstAuthor:
		_, err = update().Set("firstauthor = ?", intent.Value).Exec(ctx)
	case reconcile.SetFirstAuthorLetter:
		_, err = update().Set("first_author_letter = ?", intent.Value).Exec(ctx)
	case reconcile.SetAuthor:
		_, err = update().Set("author = ?", intent.Value).Exec(ctx)
	case reconcile.SetSeries:
		_, err = update().
			Set("series = ?", intent.Value).
			Set("numinseries = ?", intent.SeriesIndex).
			Exec(ctx)
	case reconcile.LinkGenre:
		var genre *models.Genre
		genre, err = p.genres.FindOrCreateGenre(ctx, intent.Value)
		if err == nil {
			_, err = p.genres.LinkBook(ctx, intent.BookID, genre.ID)
		}
	default:
		return errors.Errorf("unknown intent kind %q", intent.Kind)
	}
	if err != nil {
		return errors.Wrapf(err, "applying %s", intent)
	}
	return nil
}

type dependentTable struct {
	table  string
	column string
}

// dependents lists the tables referencing a book, in deletion order.
func (p *Pass) dependents() []dependentTable {
	return []dependentTable{
		{"books_settings", "bookid"},
		{p.schema.HashTable(), "book_id"},
		{"bookshelfs_books", "bookid"},
		{"booktogenre", "bookid"},
		{"social", "bookid"},
	}
}

// SweepGhostBooks deletes books that no longer have a file, along with every row referencing them, and returns
// the ids it removed. Rows belonging to other books are never touched.
func (p *Pass) SweepGhostBooks(ctx context.Context) ([]int, error) {
	var ids []int
	err := p.tx.
		NewSelect().
		TableExpr("books_impl AS b").
		ColumnExpr("b.id").
		Join("LEFT JOIN files AS f ON f.book_id = b.id").
		Where("f.id IS NULL").
		Order("b.id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, errors.Wrap(err, "finding ghost books")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = p.tx.NewDelete().TableExpr("books_impl").Where("id IN (?)", bun.In(ids)).Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "deleting ghost books")
	}

	for _, dep := range p.dependents() {
		_, err := p.tx.
			NewDelete().
			TableExpr(dep.table).
			Where("? IN (?)", bun.Ident(dep.column), bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "deleting from %s", dep.table)
		}
	}

	return ids, nil
}
