package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// The subset of the reader's explorer-3 schema that a fix pass touches, as shipped by firmware that still keeps
// book identifiers in books_uids.
func init() {
	up := func(_ context.Context, db *bun.DB) error {
		statements := []string{`
			CREATE TABLE books_impl (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT,
				author TEXT,
				firstauthor TEXT,
				first_author_letter TEXT,
				series TEXT,
				numinseries INTEGER NOT NULL DEFAULT 0,
				ext TEXT
			)
`, `
			CREATE TABLE folders (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL
			)
`, `
			CREATE TABLE files (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				book_id INTEGER REFERENCES books_impl (id),
				folder_id INTEGER REFERENCES folders (id),
				filename TEXT NOT NULL,
				storageid INTEGER NOT NULL DEFAULT 1
			)
`, `
			CREATE TABLE genres (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL
			)
`, `
			CREATE TABLE booktogenre (
				bookid INTEGER NOT NULL REFERENCES books_impl (id),
				genreid INTEGER NOT NULL REFERENCES genres (id)
			)
`, `
			CREATE TABLE books_settings (
				bookid INTEGER NOT NULL REFERENCES books_impl (id),
				profileid INTEGER,
				opentime INTEGER,
				completed INTEGER
			)
`, `
			CREATE TABLE books_uids (
				book_id INTEGER NOT NULL REFERENCES books_impl (id),
				type INTEGER,
				uid TEXT
			)
`, `
			CREATE TABLE bookshelfs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT
			)
`, `
			CREATE TABLE bookshelfs_books (
				bookshelfid INTEGER REFERENCES bookshelfs (id),
				bookid INTEGER NOT NULL REFERENCES books_impl (id)
			)
`, `
			CREATE TABLE social (
				bookid INTEGER NOT NULL REFERENCES books_impl (id),
				type INTEGER,
				value TEXT
			)
`, `
			CREATE TABLE version (
				id INTEGER NOT NULL
			)
`, `INSERT INTO version (id) VALUES (33)`,
		}
		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		tables := []string{
			"version", "social", "bookshelfs_books", "bookshelfs", "books_uids", "books_settings",
			"booktogenre", "genres", "files", "folders", "books_impl",
		}
		for _, table := range tables {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
