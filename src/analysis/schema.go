package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"netsim-results/src/helpers"
	"netsim-results/src/models"
)

var (
	throughputColumn = regexp.MustCompile(`^Flow(\d+)_Mbps$`)
	rttColumn        = regexp.MustCompile(`^Flow(\d+)_RTT$`)
)

// DiscoverSchema scans a results header once and returns the column layout
// used for every row. Header names are trimmed before matching; unknown
// columns are ignored. It fails when there is no Protocol column or no
// Flow<N>_Mbps column.
func DiscoverSchema(source string, header []string) (*models.MFlowSchema, []helpers.ParseWarning, error) {
	var warnings []helpers.ParseWarning
	schema := &models.MFlowSchema{Protocol: models.MColumnRef{Index: -1}}

	seen := make(map[string]bool, len(header))
	flowPos := make(map[int]int) // flow index -> position in schema.Flows
	var rtts []models.MFlowRTTColumn

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if seen[name] {
			warnings = append(warnings, helpers.ParseWarning{Column: name, Reason: "duplicate column ignored"})
			continue
		}
		seen[name] = true
		ref := models.MColumnRef{Name: name, Index: i}

		switch {
		case name == models.ColumnProtocol:
			schema.Protocol = ref
		case name == models.ColumnJainIndex:
			r := ref
			schema.JainIndex = &r
		default:
			if m := throughputColumn.FindStringSubmatch(name); m != nil {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					warnings = append(warnings, helpers.ParseWarning{Column: name, Reason: "flow index out of range"})
					continue
				}
				// Distinct names sharing an index are both kept; only the
				// first one can pair with Flow<N>_RTT.
				if first, dup := flowPos[n]; dup {
					warnings = append(warnings, helpers.ParseWarning{
						Column: name,
						Reason: fmt.Sprintf("flow %d already has throughput column %s", n, schema.Flows[first].Throughput.Name),
					})
				} else {
					flowPos[n] = len(schema.Flows)
				}
				schema.Flows = append(schema.Flows, models.MFlowColumns{Flow: n, Throughput: ref})
			} else if m := rttColumn.FindStringSubmatch(name); m != nil {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					warnings = append(warnings, helpers.ParseWarning{Column: name, Reason: "flow index out of range"})
					continue
				}
				rtts = append(rtts, models.MFlowRTTColumn{Flow: n, Column: ref})
			}
		}
	}

	if schema.Protocol.Index < 0 {
		return nil, warnings, helpers.NewInputError(source, helpers.CheckProtocolColumn,
			fmt.Sprintf("no %s column (columns: %s)", models.ColumnProtocol, strings.Join(header, ",")), nil)
	}
	if len(schema.Flows) == 0 {
		return nil, warnings, helpers.NewInputError(source, helpers.CheckThroughputColumns,
			fmt.Sprintf("no flow throughput columns found, expected FlowN_Mbps (columns: %s)", strings.Join(header, ",")), nil)
	}

	// RTT columns pair with throughput columns by flow index, never by position.
	// A second RTT column for the same index stays in the output unmatched.
	for _, r := range rtts {
		pos, ok := flowPos[r.Flow]
		if ok && schema.Flows[pos].RTT == nil {
			col := r.Column
			schema.Flows[pos].RTT = &col
			continue
		}
		reason := fmt.Sprintf("no Flow%d_Mbps column for this RTT column", r.Flow)
		if ok {
			reason = fmt.Sprintf("flow %d already has RTT column %s", r.Flow, schema.Flows[pos].RTT.Name)
		}
		schema.UnmatchedRTT = append(schema.UnmatchedRTT, r)
		warnings = append(warnings, helpers.ParseWarning{Column: r.Column.Name, Reason: reason})
	}
	if len(rtts) > 0 {
		for _, f := range schema.Flows {
			if f.RTT == nil {
				warnings = append(warnings, helpers.ParseWarning{
					Column: f.Throughput.Name,
					Reason: fmt.Sprintf("no Flow%d_RTT column for this throughput column", f.Flow),
				})
			}
		}
	}

	return schema, warnings, nil
}
