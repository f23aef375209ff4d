package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/motorplace/internal/config"
	svcErr "github.com/oggyb/motorplace/internal/errors"
)

// NewGRPCServer builds a gRPC server with request logging and registers all
// provided services.
func NewGRPCServer(log *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(LoggingInterceptor(log)))

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)
	return grpcServer
}

// StartGRPCServer boots a gRPC server and serves until ctx is done.
func StartGRPCServer(ctx context.Context, cfg *config.Config, log *slog.Logger, registrars ...Registrar) error {
	addr := cfg.GRPCAddr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := NewGRPCServer(log, registrars...)
	go func() {
		<-ctx.Done()
		log.Info("stopping gRPC server")
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}

// LoggingInterceptor logs every unary call with its outcome code.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		attrs := []any{"method", info.FullMethod, "took", time.Since(start)}
		switch code := svcErr.CodeOf(err); code {
		case "":
			log.Debug("rpc ok", attrs...)
		case svcErr.CodeInternal, svcErr.CodeUnavailable:
			log.Error("rpc failed", append(attrs, "code", code, "err", err)...)
		default:
			log.Info("rpc rejected", append(attrs, "code", code, "err", err)...)
		}
		return resp, err
	}
}
