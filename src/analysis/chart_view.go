package analysis

import (
	"fmt"
	"math"
	"strings"

	"netsim-results/src/analysis/core"
	"netsim-results/src/models"
)

// BuildChartData derives what a chart renderer reads from a summary: one
// bar chart per protocol and a grouped comparison across protocols.
func BuildChartData(summary *models.MSummaryTable) models.MChartData {
	throughputIdx := summary.ColumnsOfKind(models.KindThroughput)
	jainIdx := summary.ColumnsOfKind(models.KindJainIndex)

	// RTT column per flow index, if any
	rttByFlow := make(map[int]int)
	for _, c := range summary.ColumnsOfKind(models.KindRTT) {
		if _, ok := rttByFlow[summary.Columns[c].Flow]; !ok {
			rttByFlow[summary.Columns[c].Flow] = c
		}
	}

	flowLabels := make([]string, len(throughputIdx))
	for i, c := range throughputIdx {
		flowLabels[i] = FlowLabel(summary.Columns[c].Name)
	}

	data := models.MChartData{
		Comparison: models.MComparisonChart{
			FlowLabels: flowLabels,
			Series:     make([][]float64, len(throughputIdx)),
		},
	}

	for _, row := range summary.Rows {
		chart := models.MProtocolChart{
			Protocol:  row.Protocol,
			FileStem:  SanitizeFileStem(row.Protocol),
			Labels:    flowLabels,
			Values:    make([]float64, len(throughputIdx)),
			RTTLabels: make([]string, len(throughputIdx)),
			JainText:  "Jain index: N/A",
		}
		for i, c := range throughputIdx {
			v := row.Values[c].Mean
			if math.IsNaN(v) {
				v = 0
			}
			chart.Values[i] = v
			data.Comparison.Series[i] = append(data.Comparison.Series[i], v)

			chart.RTTLabels[i] = "N/A"
			if rc, ok := rttByFlow[summary.Columns[c].Flow]; ok {
				if s := core.FormatRTT(row.Values[rc].Mean); s != "" {
					chart.RTTLabels[i] = s
				}
			}
		}

		axis := row.Protocol
		if len(jainIdx) > 0 {
			if j := row.Values[jainIdx[0]].Mean; !math.IsNaN(j) {
				jain := j
				chart.JainIndex = &jain
				chart.JainText = fmt.Sprintf("Jain index: %.4f", j)
				axis = fmt.Sprintf("%s\n(Jain: %.4f)", row.Protocol, j)
			}
		}

		data.PerProtocol = append(data.PerProtocol, chart)
		data.Comparison.Protocols = append(data.Comparison.Protocols, row.Protocol)
		data.Comparison.AxisLabels = append(data.Comparison.AxisLabels, axis)
	}
	return data
}

// FlowLabel strips the _Mbps suffix: "Flow2_Mbps" -> "Flow2".
func FlowLabel(column string) string {
	return strings.TrimSuffix(column, "_Mbps")
}

// SanitizeFileStem keeps letters, digits, '-', '_' and '.', replacing
// anything else with '_'.
func SanitizeFileStem(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
