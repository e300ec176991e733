package main

import (
	"fmt"

	"netsim-results/src/analysis"
	datasource "netsim-results/src/data_source"
	"netsim-results/src/interfaces"
	"netsim-results/src/logger"
	"netsim-results/src/models"
	"netsim-results/src/storage"
)

// -----------------------------------------------------------------------------

// setupDatabase opens the run history store. It returns nil when storage
// is disabled.
func setupDatabase(config *models.MConfig, appLogger *logger.Logger) (interfaces.IDatabase, error) {
	if !storageEnabled(config) {
		return nil, nil
	}

	var db interfaces.IDatabase
	switch config.Storage.DBType {
	case models.DBTypePostgres:
		db = storage.NewPostgresDB(config, appLogger.Named("PostgresDB"))
	case models.DBTypeSQLite:
		db = storage.NewSQLiteDB(config, appLogger.Named("SQLiteDB"))
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Storage.DBType)
	}

	if err := db.Initialize(); err != nil {
		return nil, err
	}
	if err := db.CleanupOldData(); err != nil {
		appLogger.Warning("Run history cleanup failed: %v", err)
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// setupSource turns the -in paths into one result source.
func setupSource(paths []string, appLogger *logger.Logger) interfaces.IResultSource {
	if len(paths) == 1 {
		return datasource.NewFileSource(paths[0])
	}

	sources := make([]interfaces.IResultSource, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, datasource.NewFileSource(p))
	}
	appLogger.Info("Merging %d input files", len(paths))
	return datasource.NewMultiSource(sources, appLogger.Named("MultiSource"))
}

// -----------------------------------------------------------------------------

// setupAnalysis initializes the analysis facade
func setupAnalysis(config *models.MConfig, appLogger *logger.Logger, db interfaces.IDatabase) *analysis.AnalysisFacade {
	facade := analysis.NewAnalysisFacade(config, appLogger.Named("Analysis"))
	facade.Database = db
	return facade
}

// -----------------------------------------------------------------------------

// runOnce aggregates the inputs and writes the summary (and chart data).
func runOnce(config *models.MConfig, opts *options, appLogger *logger.Logger) (*analysis.AggregationResult, error) {
	db, err := setupDatabase(config, appLogger)
	if err != nil {
		return nil, err
	}
	if db != nil {
		defer db.Close()
	}

	facade := setupAnalysis(config, appLogger, db)
	return facade.Run(setupSource(opts.inputs, appLogger), opts.outPath, opts.chartsPath)
}
