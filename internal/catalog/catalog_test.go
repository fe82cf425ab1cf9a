package catalog

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/hitori/internal/grid"
)

func newCatalogWithMock(t *testing.T) (*Catalog, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return OpenWithDB(db), mock
}

func TestCatalog_SaveIssuesUpsert(t *testing.T) {
	c, mock := newCatalogWithMock(t)
	mock.ExpectExec(`INSERT INTO "hitori_boards"`).WillReturnResult(sqlmock.NewResult(1, 1))

	m := grid.Matrix{N: 2, Vals: []int{1, 2, 3, 4}}
	require.NoError(t, c.Save(context.Background(), "latin4", m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalog_LoadScansBoard(t *testing.T) {
	c, mock := newCatalogWithMock(t)
	rows := sqlmock.NewRows([]string{"name", "n", "values", "created_at"}).
		AddRow("latin4", 2, "{1,2,3,4}", nil)
	mock.ExpectQuery(`SELECT .* FROM "hitori_boards"`).WillReturnRows(rows)

	m, err := c.Load(context.Background(), "latin4")
	require.NoError(t, err)
	require.Equal(t, 2, m.N)
	require.Equal(t, []int{1, 2, 3, 4}, m.Vals)
}
