package interfaces

import "netsim-results/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for run history storage.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize opens the connection and creates missing tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSummaryRun stores one aggregation run and all of its values,
	// returning the new run id.
	SaveSummaryRun(run models.MSummaryRunInfo, summary *models.MSummaryTable) (int64, error)

	// -----------------------------------------------------------------------------

	// ListRuns returns up to limit runs, newest first.
	ListRuns(limit int) ([]models.MSummaryRunInfo, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes runs older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
