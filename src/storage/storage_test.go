package storage

import (
	"errors"
	"io"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim-results/src/helpers"
	"netsim-results/src/logger"
	"netsim-results/src/models"
)

func sampleSummary() *models.MSummaryTable {
	return &models.MSummaryTable{
		Source: "results.csv",
		Columns: []models.MSummaryColumn{
			{Name: "Flow1_Mbps", Kind: models.KindThroughput, Flow: 1},
			{Name: "Flow1_RTT", Kind: models.KindRTT, Flow: 1},
		},
		Rows: []models.MProtocolSummary{
			{
				Protocol: "TCP",
				Runs:     2,
				Values: []models.MSummaryValue{
					{Mean: 15, Std: 5, Samples: 2},
					{Mean: 0.0125, Std: 0.0025, Samples: 2},
				},
			},
		},
		RowsProcessed: 2,
	}
}

func testLogger() *logger.Logger {
	return logger.NewLoggerWithWriter(io.Discard, logger.LevelError, "storage-test")
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// -----------------------------------------------------------------------------

func TestSummaryValueRows(t *testing.T) {
	summary := sampleSummary()
	summary.Rows[0].Values[0].Mean = math.NaN()

	rows := summaryValueRows(summary)
	require.Len(t, rows, 2)

	assert.Equal(t, "TCP", rows[0].Protocol)
	assert.Equal(t, "Flow1_Mbps", rows[0].Column)
	assert.False(t, rows[0].Mean.Valid)
	assert.Equal(t, "", rows[0].Display)

	assert.Equal(t, models.KindRTT, rows[1].Kind)
	assert.True(t, rows[1].Mean.Valid)
	assert.InDelta(t, 0.0125, rows[1].Mean.Float64, 1e-12)
	assert.Equal(t, "12.5ms", rows[1].Display)
}

func TestRetentionCutoff(t *testing.T) {
	_, ok := retentionCutoff(0, fixedNow())
	assert.False(t, ok)

	cutoff, ok := retentionCutoff(1, fixedNow())
	require.True(t, ok)
	assert.Equal(t, fixedNow().Add(-24*time.Hour).Unix(), cutoff)
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "netsim_results", schemaName("netsim-results"))
	assert.Equal(t, "lab_2", schemaName("Lab 2"))
	assert.Equal(t, "netsim_results", schemaName(""))
}

// -----------------------------------------------------------------------------

func TestSQLiteSaveSummaryRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := &models.MConfig{Name: "netsim-results"}
	store := NewSQLiteDB(cfg, testLogger())
	store.DB = db
	store.now = fixedNow

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO summary_runs")).
		WithArgs("results.csv", 1, 2, 0, fixedNow().Unix()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO summary_values"))
	prep.ExpectExec().
		WithArgs(int64(7), "TCP", 0, "Flow1_Mbps", models.KindThroughput, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), 2, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(int64(7), "TCP", 0, "Flow1_RTT", models.KindRTT, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), 2, "12.5ms").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	run := models.MSummaryRunInfo{Source: "results.csv", Protocols: 1, RowsProcessed: 2}
	id, err := store.SaveSummaryRun(run, sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteSaveSummaryRunRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLiteDB(&models.MConfig{}, testLogger())
	store.DB = db

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO summary_runs")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = store.SaveSummaryRun(models.MSummaryRunInfo{Source: "x"}, sampleSummary())
	require.Error(t, err)

	var dbErr *helpers.DatabaseError
	assert.True(t, errors.As(err, &dbErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteListRuns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLiteDB(&models.MConfig{}, testLogger())
	store.DB = db

	created := fixedNow().Unix()
	rows := sqlmock.NewRows([]string{"id", "source", "protocols", "rows_processed", "warnings", "created_at"}).
		AddRow(2, "b.csv", 3, 30, 1, created).
		AddRow(1, "a.csv", 2, 20, 0, created-60)
	mock.ExpectQuery(regexp.QuoteMeta("FROM summary_runs ORDER BY id DESC LIMIT ?")).
		WithArgs(10).
		WillReturnRows(rows)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(2), runs[0].ID)
	assert.Equal(t, "b.csv", runs[0].Source)
	assert.Equal(t, 3, runs[0].Protocols)
	assert.Equal(t, fixedNow(), runs[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteCleanupOldData(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := &models.MConfig{Storage: models.MStorageConfig{RetentionDays: 7}}
	store := NewSQLiteDB(cfg, testLogger())
	store.DB = db
	store.now = fixedNow

	cutoff := fixedNow().AddDate(0, 0, -7).Unix()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM summary_values")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM summary_runs")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.CleanupOldData())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteCleanupDisabled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLiteDB(&models.MConfig{}, testLogger())
	store.DB = db

	require.NoError(t, store.CleanupOldData())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// -----------------------------------------------------------------------------

func TestPostgresSaveSummaryRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresDB(&models.MConfig{Name: "netsim-results"}, testLogger())
	store.DB = db
	store.now = fixedNow

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "netsim_results"."summary_runs"`)).
		WithArgs("results.csv", 1, 2, 3, fixedNow().Unix()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "netsim_results"."summary_values"`))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	run := models.MSummaryRunInfo{Source: "results.csv", Protocols: 1, RowsProcessed: 2, Warnings: 3}
	id, err := store.SaveSummaryRun(run, sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRuns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresDB(&models.MConfig{Name: "lab"}, testLogger())
	store.DB = db

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "lab"."summary_runs" ORDER BY id DESC LIMIT $1`)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source", "protocols", "rows_processed", "warnings", "created_at"}).
			AddRow(1, "a.csv", 2, 20, 0, fixedNow().Unix()))

	runs, err := store.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "a.csv", runs[0].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCleanupOldData(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := &models.MConfig{Name: "lab", Storage: models.MStorageConfig{RetentionDays: 30}}
	store := NewPostgresDB(cfg, testLogger())
	store.DB = db
	store.now = fixedNow

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "lab"."summary_runs" WHERE created_at < $1`)).
		WithArgs(fixedNow().AddDate(0, 0, -30).Unix()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, store.CleanupOldData())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseWithoutConnection(t *testing.T) {
	assert.NoError(t, NewSQLiteDB(&models.MConfig{}, testLogger()).Close())
	assert.NoError(t, NewPostgresDB(&models.MConfig{}, testLogger()).Close())
}
