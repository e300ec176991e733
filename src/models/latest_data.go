package models

// -----------------------------------------------------------------------------
// Server State Structure
// -----------------------------------------------------------------------------

type MLatestData struct {
	Type              string             `json:"type"` // "INITIAL" or "UPDATE"
	Summary           *MSummaryView      `json:"summary"`
	Timestamp         int64              `json:"timestamp"`
	ProcessingMetrics MProcessingMetrics `json:"processing_metrics"`
}

// MSummaryView is the JSON form of MSummaryTable. Unknown values are null.
type MSummaryView struct {
	Source  string             `json:"source"`
	Header  []string           `json:"header"`
	Columns []MSummaryColumn   `json:"columns"`
	Rows    []MProtocolRowView `json:"rows"`
}

type MProtocolRowView struct {
	Protocol     string       `json:"protocol"`
	Runs         int          `json:"runs"`
	FlowMeanJain *float64     `json:"flow_mean_jain"`
	Values       []MValueView `json:"values"`
}

type MValueView struct {
	Column  string   `json:"column"`
	Mean    *float64 `json:"mean"`
	Std     *float64 `json:"std"`
	Samples int      `json:"samples"`
	Display string   `json:"display,omitempty"` // rendered RTT, e.g. "10ms"
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command   string   `json:"command"`
	Protocols []string `json:"protocols"`
}
