package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"netsim-results/src/helpers"
	"netsim-results/src/logger"
	"netsim-results/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
	now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) *SQLiteDB {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
		now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return helpers.NewDatabaseError("failed to create database directory", err)
		}
	}

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("failed to open sqlite database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("failed to reach sqlite database", err)
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS summary_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT,
			protocols INTEGER,
			rows_processed INTEGER,
			warnings INTEGER,
			created_at INTEGER
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("failed to create summary_runs", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS summary_values (
			run_id INTEGER,
			protocol TEXT,
			position INTEGER,
			column_name TEXT,
			kind TEXT,
			flow INTEGER,
			mean REAL,
			std REAL,
			samples INTEGER,
			display TEXT,
			PRIMARY KEY (run_id, protocol, column_name)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("failed to create summary_values", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveSummaryRun(run models.MSummaryRunInfo, summary *models.MSummaryTable) (int64, error) {
	tx, err := d.DB.Begin()
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = d.now()
	}
	res, err := tx.Exec(`
		INSERT INTO summary_runs (source, protocols, rows_processed, warnings, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.Source, run.Protocols, run.RowsProcessed, run.Warnings, run.CreatedAt.UTC().Unix())
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to insert summary run", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to read run id", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO summary_values (run_id, protocol, position, column_name, kind, flow, mean, std, samples, display)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to prepare value insert", err)
	}
	defer stmt.Close()

	for _, v := range summaryValueRows(summary) {
		if _, err := stmt.Exec(id, v.Protocol, v.Position, v.Column, v.Kind, v.Flow, v.Mean, v.Std, v.Samples, v.Display); err != nil {
			return 0, helpers.NewDatabaseError(fmt.Sprintf("failed to insert value %s/%s", v.Protocol, v.Column), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, helpers.NewDatabaseError("failed to commit summary run", err)
	}
	return id, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ListRuns(limit int) ([]models.MSummaryRunInfo, error) {
	rows, err := d.DB.Query(`
		SELECT id, source, protocols, rows_processed, warnings, created_at
		FROM summary_runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to list runs", err)
	}
	return scanRuns(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) CleanupOldData() error {
	cutoff, ok := retentionCutoff(d.Config.Storage.RetentionDays, d.now())
	if !ok {
		return nil
	}

	d.Logger.Info("Cleaning up runs older than %d days (created_at < %d)...", d.Config.Storage.RetentionDays, cutoff)

	if _, err := d.DB.Exec("DELETE FROM summary_values WHERE run_id IN (SELECT id FROM summary_runs WHERE created_at < ?)", cutoff); err != nil {
		return helpers.NewDatabaseError("cleanup summary_values", err)
	}
	if _, err := d.DB.Exec("DELETE FROM summary_runs WHERE created_at < ?", cutoff); err != nil {
		return helpers.NewDatabaseError("cleanup summary_runs", err)
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
