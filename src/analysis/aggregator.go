package analysis

import (
	"math"
	"strings"

	"netsim-results/src/analysis/core"
	"netsim-results/src/helpers"
	"netsim-results/src/models"
)

// AggregateOptions tunes how raw cells turn into samples.
type AggregateOptions struct {
	// MissingThroughput is models.MissingExclude (default) or
	// models.MissingZero. With MissingZero an unknown throughput cell counts
	// as 0 Mbps instead of being left out of the mean.
	MissingThroughput string
}

// columnSource says where the samples of one summary column come from.
type columnSource struct {
	column models.MSummaryColumn
	index  int // raw header position
}

type protocolGroup struct {
	protocol string
	runs     int
	samples  [][]float64 // per summary column
}

// Aggregate groups raw simulation runs by protocol and averages every flow
// throughput, every RTT (in seconds) and the Jain index over the values that
// could be parsed. It is a pure function of table and options: it does no
// I/O and keeps no state, so independent tables may be aggregated
// concurrently.
//
// Bad cells never abort the run; they become unknown samples and are
// returned as warnings. An InputError is returned for a missing or empty
// table, or one without Protocol or Flow<N>_Mbps columns.
func Aggregate(table *models.MResultTable, opts AggregateOptions) (*models.MSummaryTable, []helpers.ParseWarning, error) {
	if table == nil {
		return nil, nil, helpers.NewInputError("", helpers.CheckFileExists, "no input table", nil)
	}
	if len(table.Header) == 0 || len(table.Rows) == 0 {
		return nil, nil, helpers.NewInputError(table.Source, helpers.CheckNotEmpty, "input table has no data rows", nil)
	}

	schema, warnings, err := DiscoverSchema(table.Source, table.Header)
	if err != nil {
		return nil, warnings, err
	}

	sources := summaryColumns(schema)
	zeroFill := opts.MissingThroughput == models.MissingZero

	groups := make(map[string]*protocolGroup)
	var order []*protocolGroup

	for r := range table.Rows {
		rowNum := r + 1
		protocol := table.Cell(r, schema.Protocol.Index)
		if strings.TrimSpace(protocol) == "" {
			warnings = append(warnings, helpers.ParseWarning{
				Row: rowNum, Column: models.ColumnProtocol, Reason: "empty protocol, row skipped",
			})
			continue
		}

		g, ok := groups[protocol]
		if !ok {
			g = &protocolGroup{protocol: protocol, samples: make([][]float64, len(sources))}
			groups[protocol] = g
			order = append(order, g)
		}
		g.runs++

		for c, src := range sources {
			cell := table.Cell(r, src.index)
			var v float64
			switch src.column.Kind {
			case models.KindRTT:
				v = core.ParseRTT(cell)
				if math.IsNaN(v) && strings.TrimSpace(cell) != "" {
					warnings = append(warnings, cellWarning(rowNum, src.column.Name, cell, "not a duration"))
				}
			default:
				var valid bool
				v, valid = core.ParseThroughput(cell)
				if !valid {
					warnings = append(warnings, cellWarning(rowNum, src.column.Name, cell, "not a finite number"))
				}
				if zeroFill && src.column.Kind == models.KindThroughput && math.IsNaN(v) {
					v = 0
				}
			}
			g.samples[c] = append(g.samples[c], v)
		}
	}

	summary := &models.MSummaryTable{
		Source:        table.Source,
		Columns:       make([]models.MSummaryColumn, len(sources)),
		RowsProcessed: len(table.Rows),
	}
	for i, src := range sources {
		summary.Columns[i] = src.column
	}

	throughputIdx := summary.ColumnsOfKind(models.KindThroughput)
	for _, g := range order {
		row := models.MProtocolSummary{
			Protocol: g.protocol,
			Runs:     g.runs,
			Values:   make([]models.MSummaryValue, len(sources)),
		}
		for c := range sources {
			mean, std, n := core.CalculateMeanStd(g.samples[c])
			row.Values[c] = models.MSummaryValue{Mean: mean, Std: std, Samples: n}
		}
		flowMeans := make([]float64, 0, len(throughputIdx))
		for _, c := range throughputIdx {
			flowMeans = append(flowMeans, row.Values[c].Mean)
		}
		row.FlowMeanJain = core.CalculateJainIndex(flowMeans)
		summary.Rows = append(summary.Rows, row)
	}

	return summary, warnings, nil
}

// summaryColumns lays out the output: throughput columns in discovery order,
// RTT columns following their throughput column's order and then any
// unmatched ones, then JainIndex.
func summaryColumns(schema *models.MFlowSchema) []columnSource {
	var cols []columnSource
	for _, f := range schema.Flows {
		cols = append(cols, columnSource{
			column: models.MSummaryColumn{Name: f.Throughput.Name, Kind: models.KindThroughput, Flow: f.Flow},
			index:  f.Throughput.Index,
		})
	}
	for _, f := range schema.Flows {
		if f.RTT == nil {
			continue
		}
		cols = append(cols, columnSource{
			column: models.MSummaryColumn{Name: f.RTT.Name, Kind: models.KindRTT, Flow: f.Flow},
			index:  f.RTT.Index,
		})
	}
	for _, u := range schema.UnmatchedRTT {
		cols = append(cols, columnSource{
			column: models.MSummaryColumn{Name: u.Column.Name, Kind: models.KindRTT, Flow: u.Flow},
			index:  u.Column.Index,
		})
	}
	if schema.JainIndex != nil {
		cols = append(cols, columnSource{
			column: models.MSummaryColumn{Name: schema.JainIndex.Name, Kind: models.KindJainIndex},
			index:  schema.JainIndex.Index,
		})
	}
	return cols
}

func cellWarning(row int, column, value, reason string) helpers.ParseWarning {
	return helpers.ParseWarning{Row: row, Column: column, Value: value, Reason: reason}
}
