package testgen

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shishobooks/bookmend/pkg/migrations"
	"github.com/shishobooks/bookmend/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewDB returns an in-memory library database with the reader's schema.
func NewDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is its own database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// BookSeed describes one book row plus the rows hanging off it.
type BookSeed struct {
	Title             string
	Author            string
	FirstAuthor       string
	FirstAuthorLetter string
	Series            string
	NumInSeries       int
	Ext               string // defaults to "epub"

	// Folder and Filename make up the files row. Leaving Filename empty creates a ghost book.
	Folder    string
	Filename  string
	StorageID int // defaults to models.StorageInternal

	Genres []string
}

// InsertBook writes seed and returns the new book id.
func InsertBook(t *testing.T, db bun.IDB, seed BookSeed) int {
	t.Helper()
	ctx := context.Background()

	if seed.Ext == "" {
		seed.Ext = "epub"
	}
	if seed.StorageID == 0 {
		seed.StorageID = models.StorageInternal
	}

	book := &models.Book{
		Title:             seed.Title,
		Author:            seed.Author,
		FirstAuthor:       seed.FirstAuthor,
		FirstAuthorLetter: seed.FirstAuthorLetter,
		Series:            seed.Series,
		NumInSeries:       seed.NumInSeries,
		Ext:               seed.Ext,
	}
	_, err := db.NewInsert().Model(book).Returning("id").Exec(ctx)
	require.NoError(t, err)

	if seed.Filename != "" {
		folder := &models.Folder{}
		err := db.NewSelect().Model(folder).Where("fo.name = ?", seed.Folder).Limit(1).Scan(ctx)
		if err != nil {
			require.ErrorIs(t, err, sql.ErrNoRows)
			folder.Name = seed.Folder
			_, err = db.NewInsert().Model(folder).Returning("id").Exec(ctx)
			require.NoError(t, err)
		}

		file := &models.File{BookID: book.ID, FolderID: folder.ID, Filename: seed.Filename, StorageID: seed.StorageID}
		_, err = db.NewInsert().Model(file).Exec(ctx)
		require.NoError(t, err)
	}

	for _, name := range seed.Genres {
		genre := &models.Genre{Name: name}
		_, err := db.NewInsert().Model(genre).Returning("id").Exec(ctx)
		require.NoError(t, err)
		_, err = db.NewInsert().Model(&models.BookGenre{BookID: book.ID, GenreID: genre.ID}).Exec(ctx)
		require.NoError(t, err)
	}

	return book.ID
}

// InsertDependents adds one row referencing bookID to every table the ghost sweep cleans up.
func InsertDependents(t *testing.T, db bun.IDB, bookID int) {
	t.Helper()
	ctx := context.Background()

	statements := []string{
		"INSERT INTO books_settings (bookid, profileid) VALUES (?, 1)",
		"INSERT INTO books_uids (book_id, type, uid) VALUES (?, 1, 'uid')",
		"INSERT INTO books_fast_hashes (book_id, hash) VALUES (?, 'hash')",
		"INSERT INTO bookshelfs_books (bookshelfid, bookid) VALUES (NULL, ?)",
		"INSERT INTO booktogenre (bookid, genreid) VALUES (?, 0)",
		"INSERT INTO social (bookid, type, value) VALUES (?, 1, 'note')",
	}
	for _, stmt := range statements {
		_, err := db.NewRaw(stmt, bookID).Exec(ctx)
		require.NoError(t, err)
	}
}

// CountRows counts the rows of table whose column equals bookID.
func CountRows(t *testing.T, db bun.IDB, table, column string, bookID int) int {
	t.Helper()
	count, err := db.NewSelect().TableExpr(table).Where("? = ?", bun.Ident(column), bookID).Count(context.Background())
	require.NoError(t, err)
	return count
}
