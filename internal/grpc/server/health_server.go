// Package server реализует gRPC-сервер портала.
//
// Сервер публикует стандартный grpc.health.v1.Health. Статус SERVING
// выставляется, пока база данных отвечает на ping, и переводится в
// NOT_SERVING при остановке.
package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
)

// ServiceName имя сервиса в ответах health.
const ServiceName = "portal"

// Pinger проверяет доступность базы данных.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer gRPC-сервер со службой health.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	db         Pinger
	interval   time.Duration
	log        *slog.Logger
}

// NewHealthServer создает HealthServer, проверяющий db раз в interval.
func NewHealthServer(db Pinger, interval time.Duration, log *slog.Logger) *HealthServer {
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	return &HealthServer{
		grpcServer: grpcServer,
		health:     hs,
		db:         db,
		interval:   interval,
		log:        log,
	}
}

// Refresh пингует базу и обновляет статус.
func (s *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("database ping failed", sl.Err(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Run обслуживает lis до отмены ctx.
func (s *HealthServer) Run(ctx context.Context, lis net.Listener) error {
	s.Refresh(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("gRPC health server listening on", slog.String("address", lis.Addr().String()))
		errCh <- s.grpcServer.Serve(lis)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Refresh(ctx)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			s.health.Shutdown()
			s.grpcServer.GracefulStop()
			return nil
		}
	}
}
