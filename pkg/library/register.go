package library

import (
	"context"
	"database/sql"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/shishobooks/bookmend/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterFile adds a bare book row for the file at filePath, the way the reader does when it first sees a
// file: no author, sort key, genre or series yet. Used to fill sandbox databases.
func (svc *Service) RegisterFile(ctx context.Context, filePath string, storageID int) (int, error) {
	dir, filename := path.Split(filePath)
	dir = strings.TrimSuffix(dir, "/")
	if filename == "" || dir == "" {
		return 0, errors.Errorf("%q is not an absolute file path", filePath)
	}

	book := &models.Book{
		Title: strings.TrimSuffix(filename, path.Ext(filename)),
		Ext:   strings.TrimPrefix(path.Ext(filename), "."),
	}

	err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		folder := &models.Folder{}
		err := tx.NewSelect().Model(folder).Where("fo.name = ?", dir).Limit(1).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			folder.Name = dir
			_, err = tx.NewInsert().Model(folder).Returning("id").Exec(ctx)
		}
		if err != nil {
			return errors.WithStack(err)
		}

		if _, err := tx.NewInsert().Model(book).Returning("id").Exec(ctx); err != nil {
			return errors.WithStack(err)
		}

		file := &models.File{BookID: book.ID, FolderID: folder.ID, Filename: filename, StorageID: storageID}
		_, err = tx.NewInsert().Model(file).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "registering %s", filePath)
	}
	return book.ID, nil
}
