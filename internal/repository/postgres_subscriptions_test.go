package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

func newMockRepo(t *testing.T) (*PostgresSubscriptionsRepo, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresSubscriptionsRepo(db), mock
}

func TestApplyReconciliationRunsDeletesFirst(t *testing.T) {
	repo, mock := newMockRepo(t)

	plan := &ReconcilePlan{
		Deletes: []domain.Pair{{TEI: 1111, ISSI: 2001}},
		Creates: []PlannedCreate{{Pair: domain.Pair{TEI: 2222, ISSI: 2001}, Alias: "PUMP"}},
	}

	mock.ExpectBegin()

	// phase 1: scope deletes
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM subscriptions WHERE radio_tei = $1 AND issi_number = $2`)).
		WithArgs(int64(1111), int64(2001)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// phase 2: create, ISSI takeover delete finds nothing left
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM subscriptions WHERE issi_number = $1`)).
		WithArgs(int64(2001)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT model_id FROM tei_ranges WHERE min_tei <= $1 AND max_tei >= $1 LIMIT 1`)).
		WithArgs(int64(2222)).
		WillReturnRows(sqlmock.NewRows([]string{"model_id"}).AddRow(int64(5)))
	mock.ExpectExec(`INSERT INTO radios`).
		WithArgs(int64(2222), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO issis`).
		WithArgs(int64(2001)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(int64(2222), int64(2001), "PUMP").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectCommit()

	outcome, err := repo.ApplyReconciliation(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Created)
	assert.Equal(t, 1, outcome.Deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyReconciliationUnclassifiedContinues(t *testing.T) {
	repo, mock := newMockRepo(t)

	plan := &ReconcilePlan{
		Creates: []PlannedCreate{{Pair: domain.Pair{TEI: 9999, ISSI: 2001}}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM subscriptions WHERE issi_number = $1`)).
		WithArgs(int64(2001)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT model_id FROM tei_ranges`)).
		WithArgs(int64(9999)).
		WillReturnRows(sqlmock.NewRows([]string{"model_id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM radios WHERE tei = $1)`)).
		WithArgs(int64(9999)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectCommit()

	outcome, err := repo.ApplyReconciliation(context.Background(), plan)
	require.NoError(t, err)
	assert.Zero(t, outcome.Created)
	assert.Equal(t, []domain.Pair{{TEI: 9999, ISSI: 2001}}, outcome.Unclassified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyReconciliationAliasUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)

	plan := &ReconcilePlan{
		AliasUpdates: []PlannedAliasUpdate{{Pair: domain.Pair{TEI: 1111, ISSI: 2001}, Alias: "NEW"}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE subscriptions SET astrid_alias = $3 WHERE radio_tei = $1 AND issi_number = $2`)).
		WithArgs(int64(1111), int64(2001), "NEW").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.ApplyReconciliation(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByTEINotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT s.id, s.radio_tei`).
		WithArgs(int64(1234)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByTEI(context.Background(), 1234)
	assert.ErrorIs(t, err, ErrNotFound)
}
