package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var groupCols = []string{"id", "name", "parent_id", "sort_order", "is_active", "created_at", "updated_at"}

func newRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewPGRepository(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestFindGroupByID(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM characteristic_groups WHERE id = $1")).
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows(groupCols).AddRow("g1", "Length", "s1", 2, true, now, now))

	g, err := repo.FindGroupByID(context.Background(), "g1")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "Length", g.Name)
	require.NotNil(t, g.ParentID)
	assert.Equal(t, "s1", *g.ParentID)
	assert.False(t, g.IsSection())

	mock.ExpectQuery(regexp.QuoteMeta("FROM characteristic_groups WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	g, err = repo.FindGroupByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, g)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextGroupSortOrder_RootUsesNullSafeComparison(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE parent_id IS NOT DISTINCT FROM $1::uuid")).
		WithArgs(nil).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))

	next, err := repo.NextGroupSortOrder(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAffectedProducts(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT COALESCE(a.product_id, pv.master_id))")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountAffectedProducts(context.Background(), []string{"g1", "g2"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAffectedProductIDs(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT COALESCE(a.product_id, pv.master_id)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("p1").AddRow("p2"))

	ids, err := repo.AffectedProductIDs(context.Background(), []string{"g1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValueProductIDs(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.value_id = $1")).
		WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}))

	ids, err := repo.ValueProductIDs(context.Background(), "v1")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_DeletesSubtreeInOneTransaction(t *testing.T) {
	repo, mock := newRepo(t)
	ids := []string{"s1", "g1"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM characteristic_assignments a")).
		WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM characteristic_values WHERE group_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM characteristic_groups WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	var deleted [3]int64
	err := repo.Execute(context.Background(), func(tx taxonomy.Repository) error {
		var err error
		if deleted[0], err = tx.DeleteAssignmentsByGroups(context.Background(), ids); err != nil {
			return err
		}
		if deleted[1], err = tx.DeleteValuesByGroups(context.Background(), ids); err != nil {
			return err
		}
		deleted[2], err = tx.DeleteGroups(context.Background(), ids)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, [3]int64{5, 3, 2}, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RollsBackAndClassifies(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO characteristic_groups")).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	err := repo.Execute(context.Background(), func(tx taxonomy.Repository) error {
		parent := "gone"
		return tx.CreateGroup(context.Background(), &model.CharacteristicGroup{
			BaseModel: model.BaseModel{ID: "g1"},
			Name:      "Length",
			ParentID:  &parent,
		})
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
