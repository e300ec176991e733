package models

// MProtocolChart is what a renderer needs to draw the per-flow bar chart of
// one protocol.
type MProtocolChart struct {
	Protocol  string    `json:"protocol"`
	FileStem  string    `json:"file_stem"`
	Labels    []string  `json:"labels"`
	Values    []float64 `json:"values"` // Mbps, unknown rendered as 0
	RTTLabels []string  `json:"rtt_labels"`
	JainIndex *float64  `json:"jain_index"`
	JainText  string    `json:"jain_text"`
}

// MComparisonChart is the grouped-bar view across protocols. Series[i] holds
// flow i's throughput for every protocol, in Protocols order.
type MComparisonChart struct {
	Protocols  []string    `json:"protocols"`
	FlowLabels []string    `json:"flow_labels"`
	Series     [][]float64 `json:"series"`
	AxisLabels []string    `json:"axis_labels"`
}

// MChartData bundles both chart views of one summary.
type MChartData struct {
	PerProtocol []MProtocolChart `json:"per_protocol"`
	Comparison  MComparisonChart `json:"comparison"`
}
