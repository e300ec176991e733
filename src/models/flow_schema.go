package models

// Well-known column names of a results file.
const (
	ColumnProtocol  = "Protocol"
	ColumnJainIndex = "JainIndex"
)

// MColumnRef points at one header column.
type MColumnRef struct {
	Name  string `json:"name"`
	Index int    `json:"index"` // position in the raw header
}

// MFlowColumns groups the columns that belong to one flow index N.
// RTT is nil when the file carries no Flow<N>_RTT for that flow.
type MFlowColumns struct {
	Flow       int         `json:"flow"`
	Throughput MColumnRef  `json:"throughput"`
	RTT        *MColumnRef `json:"rtt,omitempty"`
}

// MFlowSchema is discovered once per header and drives row processing.
type MFlowSchema struct {
	Protocol MColumnRef `json:"protocol"`
	// Flows in throughput discovery order.
	Flows []MFlowColumns `json:"flows"`
	// UnmatchedRTT lists Flow<N>_RTT columns with no Flow<N>_Mbps partner,
	// in discovery order.
	UnmatchedRTT []MFlowRTTColumn `json:"unmatched_rtt,omitempty"`
	JainIndex    *MColumnRef      `json:"jain_index,omitempty"`
}

// MFlowRTTColumn is an RTT column together with its flow index.
type MFlowRTTColumn struct {
	Flow   int        `json:"flow"`
	Column MColumnRef `json:"column"`
}

// HasRTT reports whether any RTT column was discovered.
func (s *MFlowSchema) HasRTT() bool {
	if len(s.UnmatchedRTT) > 0 {
		return true
	}
	for _, f := range s.Flows {
		if f.RTT != nil {
			return true
		}
	}
	return false
}
