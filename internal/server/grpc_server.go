package server

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/shuttle-league/internal/auth"
	"github.com/oggyb/shuttle-league/internal/config"
)

// NewGRPCServer builds a gRPC server with logging, auth and error mapping
// interceptors, the health service, reflection and every provided service.
func NewGRPCServer(authMgr *auth.Manager, log *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			UnaryLogging(log),
			UnaryErrors(),
			UnaryAuth(authMgr, "/grpc.health.v1.Health/", "/grpc.reflection."),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	healthpb.RegisterHealthServer(grpcServer, health.NewServer())

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer boots a gRPC server and registers all provided services
func StartGRPCServer(cfg *config.Config, authMgr *auth.Manager, log *slog.Logger, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return NewGRPCServer(authMgr, log, registrars...).Serve(lis)
}
