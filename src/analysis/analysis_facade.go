package analysis

import (
	"errors"
	"fmt"
	"time"

	"netsim-results/src/helpers"
	"netsim-results/src/interfaces"
	"netsim-results/src/logger"
	"netsim-results/src/metrics"
	"netsim-results/src/models"
	"netsim-results/src/storage"
	"netsim-results/src/utils"
)

// AggregationResult is everything one run produced.
type AggregationResult struct {
	Summary  *models.MSummaryTable
	Warnings []helpers.ParseWarning
	Metrics  models.MProcessingMetrics
	Run      models.MSummaryRunInfo
}

type AnalysisFacade struct {
	Config       *models.MConfig
	Logger       *logger.Logger
	ErrorHandler *helpers.ErrorHandler
	// Optional sinks; nil disables them.
	Database  interfaces.IDatabase
	History   *utils.RunHistory
	Exchanger interfaces.IDataExchanger

	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(cfg *models.MConfig, log *logger.Logger) *AnalysisFacade {
	return &AnalysisFacade{
		Config:       cfg,
		Logger:       log,
		ErrorHandler: helpers.NewErrorHandler(log.Named("ErrorHandler")),
		History:      utils.NewRunHistory(cfg.Aggregation.HistorySize),
		now:          time.Now,
	}
}

// -----------------------------------------------------------------------------

// Options returns the aggregation options implied by the config.
func (a *AnalysisFacade) Options() AggregateOptions {
	policy := a.Config.Aggregation.MissingThroughput
	if policy == "" {
		policy = models.MissingExclude
	}
	return AggregateOptions{MissingThroughput: policy}
}

// -----------------------------------------------------------------------------

// Process loads src and aggregates it. Warnings are logged and counted;
// an InputError stops the run before anything is recorded.
func (a *AnalysisFacade) Process(src interfaces.IResultSource) (*AggregationResult, error) {
	start := a.now()

	table, err := src.Load()
	if err != nil {
		a.recordFailure(err)
		return nil, err
	}

	summary, warnings, err := Aggregate(table, a.Options())
	if err != nil {
		a.ErrorHandler.Warn(src.Name(), warnings)
		a.recordFailure(err)
		return nil, err
	}
	elapsed := a.now().Sub(start)

	a.ErrorHandler.Warn(src.Name(), warnings)
	metrics.RecordAggregation(elapsed, summary.RowsProcessed, len(summary.Rows), len(warnings))

	result := &AggregationResult{
		Summary:  summary,
		Warnings: warnings,
		Metrics: models.MProcessingMetrics{
			AggregationTimeSeconds: elapsed.Seconds(),
			RowsProcessed:          summary.RowsProcessed,
			Protocols:              len(summary.Rows),
			ParseWarnings:          len(warnings),
		},
		Run: models.MSummaryRunInfo{
			Source:        src.Name(),
			Protocols:     len(summary.Rows),
			RowsProcessed: summary.RowsProcessed,
			Warnings:      len(warnings),
			CreatedAt:     start.UTC(),
		},
	}

	a.record(result)

	a.Logger.Info("Aggregated %d rows from %s into %d protocols (%d warnings) in %.3fs",
		summary.RowsProcessed, src.Name(), len(summary.Rows), len(warnings), elapsed.Seconds())
	return result, nil
}

// -----------------------------------------------------------------------------

// Run processes src and writes the summary CSV to outPath. When chartsPath
// is set the chart data is written there as JSON.
func (a *AnalysisFacade) Run(src interfaces.IResultSource, outPath, chartsPath string) (*AggregationResult, error) {
	result, err := a.Process(src)
	if err != nil {
		return nil, err
	}

	if err := storage.WriteSummaryFile(outPath, result.Summary); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	a.Logger.Info("Summary written to %s", outPath)

	if chartsPath != "" {
		if err := storage.WriteChartDataFile(chartsPath, BuildChartData(result.Summary)); err != nil {
			return nil, fmt.Errorf("write chart data: %w", err)
		}
		a.Logger.Info("Chart data written to %s", chartsPath)
	}
	return result, nil
}

// -----------------------------------------------------------------------------

// record persists the run and pushes it to listeners. Storage failures are
// logged, never returned: the summary itself is already valid.
func (a *AnalysisFacade) record(result *AggregationResult) {
	if a.Database != nil {
		id, err := a.Database.SaveSummaryRun(result.Run, result.Summary)
		if err != nil {
			a.ErrorHandler.Handle(err, "SaveSummaryRun")
		} else {
			result.Run.ID = id
		}
	}

	if a.History != nil {
		result.Run = a.History.AppendWithID(result.Run)
	}

	if a.Exchanger != nil {
		a.Exchanger.UpdateSummary(result.Summary, result.Metrics)
		a.Exchanger.Broadcast(models.MLatestData{
			Type:              "UPDATE",
			Summary:           BuildSummaryView(result.Summary),
			Timestamp:         result.Run.CreatedAt.Unix(),
			ProcessingMetrics: result.Metrics,
		})
	}
}

// -----------------------------------------------------------------------------

func (a *AnalysisFacade) recordFailure(err error) {
	var inputErr *helpers.InputError
	if errors.As(err, &inputErr) {
		metrics.RecordFailure(inputErr.Check)
	} else {
		metrics.RecordFailure("")
	}
	a.ErrorHandler.Handle(err, "Process")
}
