package models

// MProcessingMetrics represents the performance metrics for one aggregation run.
type MProcessingMetrics struct {
	AggregationTimeSeconds float64 `json:"aggregation_time_seconds"`
	RowsProcessed          int     `json:"rows_processed"`
	Protocols              int     `json:"protocols"`
	ParseWarnings          int     `json:"parse_warnings"`
}
