package interfaces

import "netsim-results/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger shares aggregation results with external listeners (Server/Push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a message to every connected listener.
	Broadcast(payload models.MLatestData)

	// -----------------------------------------------------------------------------
	// UpdateSummary replaces the shared state without broadcasting.
	UpdateSummary(summary *models.MSummaryTable, metrics models.MProcessingMetrics)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
