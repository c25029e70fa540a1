package worker

import (
	"context"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookmend/internal/testgen"
	"github.com/shishobooks/bookmend/pkg/config"
	"github.com/shishobooks/bookmend/pkg/epub"
	"github.com/shishobooks/bookmend/pkg/genres"
	"github.com/shishobooks/bookmend/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// testContext holds all the dependencies needed for testing the worker.
type testContext struct {
	t      *testing.T
	ctx    context.Context
	db     *bun.DB
	config *config.Config
	dir    string
}

func newTestContext(t *testing.T) *testContext {
	t.Helper()

	dir := testgen.TempDir(t, "bookmend-worker-*")
	cfg := config.NewForTest()
	cfg.DRMFolders = []string{dir + "/Digital Editions"}

	return &testContext{
		t:      t,
		ctx:    logger.New().WithContext(context.Background()),
		db:     testgen.NewDB(t),
		config: cfg,
		dir:    dir,
	}
}

func (tc *testContext) worker() *Worker {
	return NewWithFiles(tc.config, tc.db, epub.OSFileAccessor{})
}

// addBook writes an EPUB into folder (relative to the test directory) and registers it as a book.
func (tc *testContext) addBook(folder, filename string, opts testgen.EPUBOptions, seed testgen.BookSeed) int {
	tc.t.Helper()

	seed.Folder = tc.dir
	if folder != "" {
		seed.Folder = tc.dir + "/" + folder
	}
	seed.Filename = filename

	testgen.MkdirAll(tc.t, seed.Folder)
	testgen.GenerateEPUB(tc.t, seed.Folder, filename, opts)
	return testgen.InsertBook(tc.t, tc.db, seed)
}

func (tc *testContext) run() *Result {
	tc.t.Helper()
	res, err := tc.worker().ProcessFixPass(tc.ctx)
	require.NoError(tc.t, err)
	return res
}

func (tc *testContext) book(id int) *models.Book {
	tc.t.Helper()
	book := &models.Book{}
	require.NoError(tc.t, tc.db.NewSelect().Model(book).Where("b.id = ?", id).Scan(tc.ctx))
	return book
}

func (tc *testContext) genres(id int) []string {
	tc.t.Helper()
	names, err := genres.NewService(tc.db).ListBookGenres(tc.ctx, id)
	require.NoError(tc.t, err)
	return names
}
