package interfaces

import "netsim-results/src/models"

// -----------------------------------------------------------------------------
// IResultSource yields one raw results table (a file on disk, an upload...).
// -----------------------------------------------------------------------------

type IResultSource interface {

	// Name identifies the source in logs, errors and run history
	Name() string

	// -----------------------------------------------------------------------------

	// Load reads and decodes the whole table.
	Load() (*models.MResultTable, error)
}
