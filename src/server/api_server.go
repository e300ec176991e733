package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"netsim-results/src/analysis"
	datasource "netsim-results/src/data_source"
	"netsim-results/src/helpers"
	"netsim-results/src/interfaces"
	"netsim-results/src/logger"
	"netsim-results/src/metrics"
	"netsim-results/src/models"
	"netsim-results/src/storage"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// -----------------------------------------------------------------------------
// ResultsServer
// -----------------------------------------------------------------------------

type ResultsServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Facade   *analysis.AnalysisFacade
	Database interfaces.IDatabase // optional, preferred for /api/history
	engine   *gin.Engine
	http     *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MLatestData // Strongly typed and Buffered Queue
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// Local cache
	latestSummary *models.MSummaryTable
	latestState   *models.MLatestData
	stateMutex    sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

// NewResultsServer builds the HTTP server and registers itself as the
// facade's exchanger, so every processed run is pushed to clients.
func NewResultsServer(cfg *models.MConfig, log *logger.Logger, facade *analysis.AnalysisFacade) *ResultsServer {
	// Set Gin mode
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &ResultsServer{
		Config:  cfg,
		Logger:  log,
		Facade:  facade,
		engine:  gin.New(),
		clients: make(map[*Client]struct{}),
		// Queue size of 256 absorbs bursts of uploads
		broadcast:  make(chan *models.MLatestData, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		latestState: &models.MLatestData{
			Type: "INITIAL",
		},
	}
	facade.Exchanger = s

	s.engine.Use(gin.Recovery(), metrics.GinMiddleware())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Content-Encoding, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ResultsServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/metrics", s.getMetrics)
	s.engine.GET("/api/summary", s.getSummary)
	s.engine.GET("/api/summary.csv", s.getSummaryCSV)
	s.engine.GET("/api/charts", s.getCharts)
	s.engine.GET("/api/history", s.getHistory)
	s.engine.POST("/api/aggregate", s.postAggregate)

	// Prometheus
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests.
func (s *ResultsServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub and serves HTTP until Stop is called.
func (s *ResultsServer) Start() error {
	s.Logger.Info("Starting server on %s", s.http.Addr)

	go s.handleWebsockets()

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *ResultsServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err = s.http.Shutdown(ctx)
		close(s.done)
		s.Logger.Info("Server stopped")
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *ResultsServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
	})
}

// -----------------------------------------------------------------------------

func (s *ResultsServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":               s.Config.Name,
		"missing_throughput": s.Facade.Options().MissingThroughput,
		"history_size":       s.Config.Aggregation.HistorySize,
		"max_upload_bytes":   s.Config.Aggregation.MaxUploadBytes,
		"db_type":            s.Config.Storage.DBType,
	})
}

// -----------------------------------------------------------------------------

func (s *ResultsServer) getMetrics(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, s.latestState.ProcessingMetrics)
}

// -----------------------------------------------------------------------------

func (s *ResultsServer) getSummary(c *gin.Context) {
	s.stateMutex.RLock()
	state := filterState(s.latestState, queryProtocols(c))
	s.stateMutex.RUnlock()

	if state.Summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no summary yet"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// -----------------------------------------------------------------------------

func (s *ResultsServer) getSummaryCSV(c *gin.Context) {
	summary := s.LatestSummary()
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no summary yet"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="results_summary.csv"`)
	c.Status(http.StatusOK)
	if err := storage.WriteSummaryCSV(c.Writer, summary); err != nil {
		s.Logger.Error("Failed to stream summary CSV: %v", err)
	}
}

// -----------------------------------------------------------------------------

func (s *ResultsServer) getCharts(c *gin.Context) {
	summary := s.LatestSummary()
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no summary yet"})
		return
	}
	c.JSON(http.StatusOK, analysis.BuildChartData(summary))
}

// -----------------------------------------------------------------------------

func (s *ResultsServer) getHistory(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"), s.Config.Aggregation.HistorySize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if s.Database != nil {
		runs, err := s.Database.ListRuns(limit)
		if err != nil {
			s.Logger.Error("Failed to list runs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
			return
		}
		if runs == nil {
			runs = []models.MSummaryRunInfo{}
		}
		c.JSON(http.StatusOK, runs)
		return
	}

	c.JSON(http.StatusOK, s.Facade.History.GetLatest(limit))
}

// -----------------------------------------------------------------------------

// postAggregate aggregates a CSV request body (plain, gzip or zstd). Bodies
// over max_upload_bytes, sent or decompressed, get 413.
func (s *ResultsServer) postAggregate(c *gin.Context) {
	name := c.DefaultQuery("name", "upload.csv")
	limit := s.Config.Aggregation.MaxUploadBytes

	body := c.Request.Body
	if limit > 0 {
		body = http.MaxBytesReader(c.Writer, body, limit)
	}
	src := datasource.NewReaderSource(name, body)
	src.MaxBytes = limit

	result, err := s.Facade.Process(src)
	if err != nil {
		var inputErr *helpers.InputError
		if errors.As(err, &inputErr) {
			status := http.StatusBadRequest
			if inputErr.Check == helpers.CheckSizeLimit {
				status = http.StatusRequestEntityTooLarge
			}
			c.JSON(status, gin.H{"error": inputErr.Error(), "check": inputErr.Check})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []helpers.ParseWarning{}
	}
	c.JSON(http.StatusOK, gin.H{
		"run":                result.Run,
		"processing_metrics": result.Metrics,
		"warnings":           warnings,
		"summary":            analysis.BuildSummaryView(result.Summary),
	})
}
