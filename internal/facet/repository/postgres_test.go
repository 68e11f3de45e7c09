package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/facet/dto"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var countCols = []string{"group_id", "value_id", "value", "color_hex", "sort_order", "product_count"}

func newRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewPGRepository(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestCountProducts(t *testing.T) {
	repo, mock := newRepo(t)
	hex := "#ff0000"

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY GROUPING SETS ((v.group_id), (v.group_id, v.id))")).
		WithArgs("0b3c2d1e-0000-4000-8000-000000000001", "%cuff%", "%cuff%").
		WillReturnRows(sqlmock.NewRows(countCols).
			AddRow("g1", nil, "Adult", nil, 0, 2).
			AddRow("g1", "v1", "Adult", nil, 0, 1).
			AddRow("g1", "v2", "Red", hex, 1, 1))

	rows, err := repo.CountProducts(context.Background(), &dto.FacetFilter{
		CategoryID:  "0b3c2d1e-0000-4000-8000-000000000001",
		SearchQuery: "cuff",
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Nil(t, rows[0].ValueID)
	assert.Equal(t, 2, rows[0].ProductCount)
	require.NotNil(t, rows[2].ValueID)
	assert.Equal(t, "v2", *rows[2].ValueID)
	require.NotNil(t, rows[2].ColorHex)
	assert.Equal(t, hex, *rows[2].ColorHex)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountProducts_OnlyLiveInStockProducts(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`p\.status <> 'deleted' AND \(p\.stock_quantity > 0 OR EXISTS`).
		WillReturnRows(sqlmock.NewRows(countCols))

	rows, err := repo.CountProducts(context.Background(), &dto.FacetFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountProducts_ClassifiesErrors(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("GROUPING SETS").WillReturnError(&pgconn.PgError{Code: "40P01"})

	_, err := repo.CountProducts(context.Background(), &dto.FacetFilter{})
	assert.True(t, apperr.IsTransient(err))
}

func TestListActiveGroups(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM characteristic_groups WHERE is_active")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "sort_order", "is_active", "created_at", "updated_at"}).
			AddRow("s1", "Dimensions", nil, 0, true, now, now).
			AddRow("g1", "Length", "s1", 1, true, now, now))

	groups, err := repo.ListActiveGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.True(t, groups[0].IsSection())
	assert.False(t, groups[1].IsSection())
}
