package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"netsim-results/src/config"
	"netsim-results/src/helpers"
	"netsim-results/src/logger"
	"netsim-results/src/models"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// -----------------------------------------------------------------------------

type options struct {
	inputs     []string
	outPath    string
	chartsPath string
	configPath string
	logLevel   string
	missing    string
	serve      bool
}

// -----------------------------------------------------------------------------

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// -----------------------------------------------------------------------------

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	// Load config
	conf, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitUsage
	}

	// Setup logger
	appLogger := logger.NewLoggerWithWriter(stderr, logger.ParseLevel(conf.LogLevel), conf.Name)

	if opts.serve {
		if err := serve(conf, opts, appLogger); err != nil {
			appLogger.Error("Serve failed: %v", err)
			return exitError
		}
		return exitOK
	}

	result, err := runOnce(conf.MConfig, opts, appLogger)
	if err != nil {
		// InputError already names the path and the failed check
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	fmt.Fprintf(stdout, "%s: %d protocols from %d rows (%d warnings)\n",
		opts.outPath, result.Metrics.Protocols, result.Metrics.RowsProcessed, result.Metrics.ParseWarnings)
	return exitOK
}

// -----------------------------------------------------------------------------

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("netsim-results", flag.ContinueOnError)
	fs.SetOutput(stderr)

	in := fs.String("in", "", "results CSV to aggregate (comma separated for several files)")
	out := fs.String("out", "results_summary.csv", "summary CSV to write")
	charts := fs.String("charts", "", "also write chart data as JSON to this path")
	configPath := fs.String("config", "", "path to YAML config file (defaults when empty)")
	logLevel := fs.String("log-level", "", "override log level (debug, info, warning, error)")
	missing := fs.String("missing", "", "missing throughput policy: exclude or zero")
	serveMode := fs.Bool("serve", false, "serve the HTTP API and gRPC health after the optional first run")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	opts := &options{
		outPath:    *out,
		chartsPath: *charts,
		configPath: *configPath,
		logLevel:   *logLevel,
		missing:    *missing,
		serve:      *serveMode,
	}
	for _, p := range strings.Split(*in, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.inputs = append(opts.inputs, p)
		}
	}

	if len(opts.inputs) == 0 && !opts.serve {
		return nil, fmt.Errorf("-in is required unless -serve is set")
	}
	if !opts.serve && opts.outPath == "" {
		return nil, fmt.Errorf("-out cannot be empty")
	}
	return opts, nil
}

// -----------------------------------------------------------------------------

// loadConfig reads the YAML file (if any) and applies flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	conf := config.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if conf, err = config.NewConfig(opts.configPath); err != nil {
			return nil, helpers.NewConfigurationError("cannot load "+opts.configPath, err)
		}
	}

	if opts.logLevel != "" {
		conf.LogLevel = opts.logLevel
	}
	if opts.missing != "" {
		conf.Aggregation.MissingThroughput = strings.ToLower(opts.missing)
	}
	if err := conf.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("invalid configuration", err)
	}
	return conf, nil
}

// -----------------------------------------------------------------------------

func storageEnabled(cfg *models.MConfig) bool {
	return cfg.Storage.DBType != "" && cfg.Storage.DBType != models.DBTypeNone
}
