package models

import "time"

// Summary column kinds
const (
	KindThroughput = "throughput"
	KindRTT        = "rtt"
	KindJainIndex  = "jain_index"
)

// MSummaryColumn describes one value column of the summary table. The
// Protocol column is implicit and always first.
type MSummaryColumn struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Flow int    `json:"flow,omitempty"`
}

// MSummaryValue is the mean of the available (non-NaN) samples of one
// column inside one protocol group. Mean is NaN when no sample was usable.
// RTT means are in seconds.
type MSummaryValue struct {
	Mean    float64
	Std     float64
	Samples int
}

// MProtocolSummary is one output row. Values is aligned with
// MSummaryTable.Columns.
type MProtocolSummary struct {
	Protocol string
	Runs     int
	Values   []MSummaryValue
	// FlowMeanJain is the Jain fairness index of the mean per-flow
	// throughputs of this protocol (NaN when undefined).
	FlowMeanJain float64
}

// MSummaryTable is the per-protocol result of one aggregation run.
type MSummaryTable struct {
	Source        string
	Columns       []MSummaryColumn
	Rows          []MProtocolSummary
	RowsProcessed int
}

// Header returns the output header: Protocol followed by every value column.
func (t *MSummaryTable) Header() []string {
	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, ColumnProtocol)
	for _, c := range t.Columns {
		header = append(header, c.Name)
	}
	return header
}

// ColumnsOfKind returns the positions (into Columns) of all columns of kind.
func (t *MSummaryTable) ColumnsOfKind(kind string) []int {
	var idx []int
	for i, c := range t.Columns {
		if c.Kind == kind {
			idx = append(idx, i)
		}
	}
	return idx
}

// HasJainIndex reports whether the source carried a JainIndex column.
func (t *MSummaryTable) HasJainIndex() bool {
	return len(t.ColumnsOfKind(KindJainIndex)) > 0
}

// MSummaryRunInfo is the bookkeeping record of one aggregation run.
type MSummaryRunInfo struct {
	ID            int64     `json:"id"`
	Source        string    `json:"source"`
	Protocols     int       `json:"protocols"`
	RowsProcessed int       `json:"rows_processed"`
	Warnings      int       `json:"warnings"`
	CreatedAt     time.Time `json:"created_at"`
}
