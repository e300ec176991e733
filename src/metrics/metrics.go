package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	// Aggregation metrics
	AggregationRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netsim_aggregation_runs_total",
		Help: "Total number of completed aggregation runs",
	})
	AggregationFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netsim_aggregation_failures_total",
		Help: "Aggregation runs rejected, by failed input check",
	}, []string{"check"})
	ParseWarningsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netsim_parse_warnings_total",
		Help: "Cells and columns that could not be used",
	})
	RowsProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netsim_rows_processed_total",
		Help: "Simulation rows read across all runs",
	})
	ProtocolsLast = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netsim_protocols",
		Help: "Number of protocols in the last summary",
	})
	AggregationDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "netsim_aggregation_duration_seconds",
		Help:    "Duration of one aggregation run in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netsim_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"path", "status"})

	// gRPC metrics
	GRPCRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netsim_grpc_requests_total",
		Help: "Total number of unary gRPC calls",
	}, []string{"method", "code"})

	registerOnce sync.Once
)

func init() {
	InitMetrics()
}

// InitMetrics registers all collectors with the default registry.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			AggregationRunsTotal,
			AggregationFailuresTotal,
			ParseWarningsTotal,
			RowsProcessedTotal,
			ProtocolsLast,
			AggregationDurationSeconds,
			HTTPRequestsTotal,
			GRPCRequestsTotal,
		)
	})
}

// Handler exposes the registered metrics.
func Handler() http.Handler {
	InitMetrics()
	return promhttp.Handler()
}

// RecordAggregation tracks one successful aggregation run.
func RecordAggregation(duration time.Duration, rows, protocols, warnings int) {
	if duration < 0 {
		duration = 0
	}
	AggregationRunsTotal.Inc()
	AggregationDurationSeconds.Observe(duration.Seconds())
	RowsProcessedTotal.Add(float64(rows))
	ProtocolsLast.Set(float64(protocols))
	ParseWarningsTotal.Add(float64(warnings))
}

// RecordFailure tracks a run that stopped on an input check.
func RecordFailure(check string) {
	if check == "" {
		check = "unknown"
	}
	AggregationFailuresTotal.WithLabelValues(check).Inc()
}

// GinMiddleware counts requests by route and status code.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// GRPCUnaryInterceptor counts unary calls by method and status code.
func GRPCUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		GRPCRequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}
