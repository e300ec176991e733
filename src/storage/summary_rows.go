package storage

import (
	"database/sql"
	"math"
	"time"

	"netsim-results/src/analysis/core"
	"netsim-results/src/models"
)

// valueRow is one (protocol, column) cell of a summary in long format.
type valueRow struct {
	Protocol string
	Position int
	Column   string
	Kind     string
	Flow     int
	Mean     sql.NullFloat64
	Std      sql.NullFloat64
	Samples  int
	Display  string
}

func summaryValueRows(summary *models.MSummaryTable) []valueRow {
	var rows []valueRow
	for pos, r := range summary.Rows {
		for i, v := range r.Values {
			col := summary.Columns[i]
			row := valueRow{
				Protocol: r.Protocol,
				Position: pos,
				Column:   col.Name,
				Kind:     col.Kind,
				Flow:     col.Flow,
				Mean:     nullFloat(v.Mean),
				Std:      nullFloat(v.Std),
				Samples:  v.Samples,
			}
			if col.Kind == models.KindRTT {
				row.Display = core.FormatRTT(v.Mean)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// retentionCutoff returns the unix time before which runs are dropped, or
// false when every run is kept.
func retentionCutoff(days int, now time.Time) (int64, bool) {
	if days <= 0 {
		return 0, false
	}
	return now.UTC().AddDate(0, 0, -days).Unix(), true
}

func scanRuns(rows *sql.Rows) ([]models.MSummaryRunInfo, error) {
	defer rows.Close()
	var runs []models.MSummaryRunInfo
	for rows.Next() {
		var run models.MSummaryRunInfo
		var created int64
		if err := rows.Scan(&run.ID, &run.Source, &run.Protocols, &run.RowsProcessed, &run.Warnings, &created); err != nil {
			return nil, err
		}
		run.CreatedAt = time.Unix(created, 0).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
