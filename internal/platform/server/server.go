package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/ogurasousui/onboarding-engine/internal/adapters/grpc/handler"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server は gRPC サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
	// shutdownTimeout を過ぎても停止しない場合は強制停止します。0 なら無制限です。
	shutdownTimeout time.Duration
}

// Option は Server の任意設定です。
type Option func(*Server)

// WithShutdownTimeout は GracefulStop の待ち時間上限を設定します。
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// New は指定されたアドレスで待ち受ける gRPC サーバーを構築し、サービスとヘルスチェックを登録します。
func New(listenAddr string, logger *slog.Logger, services []handler.Service, serverOpts []Option, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	srv := grpc.NewServer(opts...)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)

	for _, svc := range services {
		handler.Register(srv, svc)
		healthSrv.SetServingStatus(svc.ServiceName(), healthpb.HealthCheckResponse_SERVING)
	}
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	s := &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     healthSrv,
		logger:     logger,
	}
	for _, opt := range serverOpts {
		opt(s)
	}
	return s
}

// Serve は既存のリスナーで待ち受けます。
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}
	return nil
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	s.logger.Info("gRPC server listening", slog.String("addr", lis.Addr().String()))

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.GracefulStop()
	}()

	if err := s.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}

// GracefulStop はヘルスチェックを NOT_SERVING にしてからサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	if s.shutdownTimeout <= 0 {
		s.grpcServer.GracefulStop()
		s.logger.Info("gRPC server stopped")
		return
	}

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(s.shutdownTimeout)
	defer timer.Stop()
	select {
	case <-done:
		s.logger.Info("gRPC server stopped")
	case <-timer.C:
		s.logger.Warn("graceful shutdown timed out; forcing stop", slog.Duration("timeout", s.shutdownTimeout))
		s.grpcServer.Stop()
		<-done
	}
}
