package analysis

import (
	"math"

	"netsim-results/src/analysis/core"
	"netsim-results/src/models"
)

// BuildSummaryView converts a summary into its JSON form; NaN becomes null.
func BuildSummaryView(summary *models.MSummaryTable) *models.MSummaryView {
	if summary == nil {
		return nil
	}
	view := &models.MSummaryView{
		Source:  summary.Source,
		Header:  summary.Header(),
		Columns: summary.Columns,
		Rows:    make([]models.MProtocolRowView, 0, len(summary.Rows)),
	}
	for _, row := range summary.Rows {
		rv := models.MProtocolRowView{
			Protocol:     row.Protocol,
			Runs:         row.Runs,
			FlowMeanJain: optionalFloat(row.FlowMeanJain),
			Values:       make([]models.MValueView, len(row.Values)),
		}
		for i, v := range row.Values {
			vv := models.MValueView{
				Column:  summary.Columns[i].Name,
				Mean:    optionalFloat(v.Mean),
				Std:     optionalFloat(v.Std),
				Samples: v.Samples,
			}
			if summary.Columns[i].Kind == models.KindRTT {
				vv.Display = core.FormatRTT(v.Mean)
			}
			rv.Values[i] = vv
		}
		view.Rows = append(view.Rows, rv)
	}
	return view
}

// FilterSummaryView keeps only the listed protocols (all when empty).
func FilterSummaryView(view *models.MSummaryView, protocols []string) *models.MSummaryView {
	if view == nil || len(protocols) == 0 {
		return view
	}
	keep := make(map[string]bool, len(protocols))
	for _, p := range protocols {
		keep[p] = true
	}
	out := *view
	out.Rows = make([]models.MProtocolRowView, 0, len(view.Rows))
	for _, r := range view.Rows {
		if keep[r.Protocol] {
			out.Rows = append(out.Rows, r)
		}
	}
	return &out
}

func optionalFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
