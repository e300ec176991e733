package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"netsim-results/src/helpers"
	"netsim-results/src/logger"
	"netsim-results/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
	now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) *PostgresDB {
	return &PostgresDB{
		Config: cfg,
		Schema: schemaName(cfg.Name),
		Logger: log,
		now:    time.Now,
	}
}

// schemaName lowercases name and replaces anything outside [a-z0-9_].
func schemaName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "netsim_results"
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewDatabaseError("failed to open postgres connection", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("failed to reach postgres", err)
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to create schema %s", d.Schema), err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."summary_runs" (
			id BIGSERIAL PRIMARY KEY,
			source TEXT,
			protocols INTEGER,
			rows_processed INTEGER,
			warnings INTEGER,
			created_at BIGINT
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("failed to create summary_runs", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."summary_values" (
			run_id BIGINT REFERENCES "%s"."summary_runs"(id) ON DELETE CASCADE,
			protocol TEXT,
			position INTEGER,
			column_name TEXT,
			kind TEXT,
			flow INTEGER,
			mean DOUBLE PRECISION,
			std DOUBLE PRECISION,
			samples INTEGER,
			display TEXT,
			PRIMARY KEY (run_id, protocol, column_name)
		);
	`, d.Schema, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("failed to create summary_values", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveSummaryRun(run models.MSummaryRunInfo, summary *models.MSummaryTable) (int64, error) {
	tx, err := d.DB.Begin()
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = d.now()
	}

	var id int64
	err = tx.QueryRow(fmt.Sprintf(`
		INSERT INTO "%s"."summary_runs" (source, protocols, rows_processed, warnings, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id
	`, d.Schema), run.Source, run.Protocols, run.RowsProcessed, run.Warnings, run.CreatedAt.UTC().Unix()).Scan(&id)
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to insert summary run", err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s"."summary_values" (run_id, protocol, position, column_name, kind, flow, mean, std, samples, display)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, d.Schema))
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

func (d *PostgresDB) ListRuns(limit int) ([]models.MSummaryRunInfo, error) {
	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT id, source, protocols, rows_processed, warnings, created_at
		FROM "%s"."summary_runs" ORDER BY id DESC LIMIT $1
	`, d.Schema), limit)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to list runs", err)
	}
	return scanRuns(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	cutoff, ok := retentionCutoff(d.Config.Storage.RetentionDays, d.now())
	if !ok {
		return nil
	}

	// summary_values rows go with their run (ON DELETE CASCADE)
	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."summary_runs" WHERE created_at < $1`, d.Schema), cutoff); err != nil {
		return helpers.NewDatabaseError("cleanup summary_runs", err)
	}

	d.Logger.Info("Cleanup completed (cutoff %d)", cutoff)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
