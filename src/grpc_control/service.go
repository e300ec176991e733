package grpc_control

import (
	"errors"
	"fmt"
	"net"

	"netsim-results/src/logger"
	"netsim-results/src/metrics"
	"netsim-results/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-checked service name of the aggregator.
const ServiceName = "netsim.ResultAggregator"

// ControlService is the gRPC control plane. It serves the standard health
// protocol so orchestrators can probe the aggregator.
type ControlService struct {
	Config *models.MConfig
	Logger *logger.Logger
	Health *health.Server
	server *grpc.Server
}

// NewControlService creates a new instance of ControlService
func NewControlService(cfg *models.MConfig, log *logger.Logger) *ControlService {
	s := &ControlService{
		Config: cfg,
		Logger: log,
		Health: health.NewServer(),
		server: grpc.NewServer(grpc.UnaryInterceptor(metrics.GRPCUnaryInterceptor())),
	}
	healthpb.RegisterHealthServer(s.server, s.Health)
	s.SetServing(true)
	return s
}

// -----------------------------------------------------------------------------

// SetServing flips both the overall and the aggregator status.
func (s *ControlService) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !serving {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.Health.SetServingStatus("", st)
	s.Health.SetServingStatus(ServiceName, st)
}

// -----------------------------------------------------------------------------

// Serve blocks serving on lis until Stop.
func (s *ControlService) Serve(lis net.Listener) error {
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Start listens on the configured gRPC address.
func (s *ControlService) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.GrpcHost, s.Config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.Logger.Info("gRPC control plane listening on %s", addr)
	return s.Serve(lis)
}

// -----------------------------------------------------------------------------

// Stop reports NOT_SERVING to watchers and drains in-flight calls.
func (s *ControlService) Stop() {
	s.Health.Shutdown()
	s.server.GracefulStop()
	s.Logger.Info("gRPC control plane stopped")
}
