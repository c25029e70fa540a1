package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Newer firmware keeps book identifiers in books_fast_hashes and bumps the schema version. books_uids stays
// around but is no longer written.
func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE books_fast_hashes (
				book_id INTEGER NOT NULL REFERENCES books_impl (id),
				hash TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`UPDATE version SET id = 37`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`UPDATE version SET id = 33`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP TABLE IF EXISTS books_fast_hashes`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
