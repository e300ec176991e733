package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestInitMetricsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() { InitMetrics() })
	assert.NotPanics(t, func() { InitMetrics() })
}

func TestHandlerServesContent(t *testing.T) {
	RecordAggregation(time.Millisecond, 1, 1, 0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "netsim_aggregation_runs_total")
}

func TestRecordAggregation(t *testing.T) {
	runs := testutil.ToFloat64(AggregationRunsTotal)
	rows := testutil.ToFloat64(RowsProcessedTotal)
	warnings := testutil.ToFloat64(ParseWarningsTotal)

	RecordAggregation(-time.Second, 12, 3, 2)

	assert.Equal(t, runs+1, testutil.ToFloat64(AggregationRunsTotal))
	assert.Equal(t, rows+12, testutil.ToFloat64(RowsProcessedTotal))
	assert.Equal(t, warnings+2, testutil.ToFloat64(ParseWarningsTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(ProtocolsLast))
}

func TestRecordFailure(t *testing.T) {
	before := testutil.ToFloat64(AggregationFailuresTotal.WithLabelValues("protocol_column"))
	RecordFailure("protocol_column")
	assert.Equal(t, before+1, testutil.ToFloat64(AggregationFailuresTotal.WithLabelValues("protocol_column")))

	RecordFailure("")
	assert.GreaterOrEqual(t, testutil.ToFloat64(AggregationFailuresTotal.WithLabelValues("unknown")), 1.0)
}

func TestGinMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/health", "204"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/health", "204")))
}

func TestGRPCUnaryInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Call"}
	before := testutil.ToFloat64(GRPCRequestsTotal.WithLabelValues(info.FullMethod, codes.NotFound.String()))

	_, err := GRPCUnaryInterceptor()(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})

	assert.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(GRPCRequestsTotal.WithLabelValues(info.FullMethod, codes.NotFound.String())))
}
