package genres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shishobooks/bookmend/pkg/models"
	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("genre not found")

type RetrieveGenreOptions struct {
	ID   *int
	Name *string
}

// Service works on whatever it is handed, so a fix pass can run it inside its transaction.
type Service struct {
	db bun.IDB
}

func NewService(db bun.IDB) *Service {
	return &Service{db}
}

func (svc *Service) CreateGenre(ctx context.Context, genre *models.Genre) error {
	_, err := svc.db.
		NewInsert().
		Model(genre).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveGenre(ctx context.Context, opts RetrieveGenreOptions) (*models.Genre, error) {
	genre := &models.Genre{}

	q := svc.db.
		NewSelect().
		Model(genre).
		Order("g.id").
		Limit(1)

	if opts.ID != nil {
		q = q.Where("g.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		// Exact match: the reader compares genre names byte-wise.
		q = q.Where("g.name = ?", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}

	return genre, nil
}

// FindOrCreateGenre returns the genre with exactly this name, creating it when it doesn't exist yet. The genres
// table has no unique constraint on the device, so the lookup comes first.
func (svc *Service) FindOrCreateGenre(ctx context.Context, name string) (*models.Genre, error) {
	if name == "" {
		return nil, errors.New("genre name cannot be empty")
	}

	genre, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{Name: &name})
	if err == nil {
		return genre, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	genre = &models.Genre{Name: name}
	err = svc.CreateGenre(ctx, genre)
	if err != nil {
		return nil, err
	}
	return genre, nil
}

// LinkBook attaches a genre to a book unless the link already exists.
func (svc *Service) LinkBook(ctx context.Context, bookID, genreID int) (bool, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.BookGenre)(nil)).
		Where("btg.bookid = ?", bookID).
		Where("btg.genreid = ?", genreID).
		Exists(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	if exists {
		return false, nil
	}

	_, err = svc.db.
		NewInsert().
		Model(&models.BookGenre{BookID: bookID, GenreID: genreID}).
		Exec(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return true, nil
}

// ListBookGenres returns the genre names linked to a book, by name.
func (svc *Service) ListBookGenres(ctx context.Context, bookID int) ([]string, error) {
	var names []string
	err := svc.db.
		NewSelect().
		Model((*models.Genre)(nil)).
		Column("g.name").
		Join("JOIN booktogenre AS btg ON btg.genreid = g.id").
		Where("btg.bookid = ?", bookID).
		Order("g.name").
		Scan(ctx, &names)
	return names, errors.WithStack(err)
}
