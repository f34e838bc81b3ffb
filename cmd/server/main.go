package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/onboarding-engine/internal/adapters/grpc/interceptor"
	"github.com/ogurasousui/onboarding-engine/internal/app"
	"github.com/ogurasousui/onboarding-engine/internal/platform/config"
	"github.com/ogurasousui/onboarding-engine/internal/platform/logging"
	"github.com/ogurasousui/onboarding-engine/internal/platform/server"
	"google.golang.org/grpc"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(effectiveConfigPath(*configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log, os.Stdout)

	repos, closeStorage, err := app.Storage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}
	defer closeStorage()

	services := app.NewServices(repos)
	auth := interceptor.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	grpcServer := server.New(cfg.Server.ListenAddr, logger, services.Handlers(),
		[]server.Option{server.WithShutdownTimeout(cfg.Server.ShutdownTimeout)},
		grpc.ChainUnaryInterceptor(auth.Unary(), interceptor.Logging(logger)),
	)

	if err := grpcServer.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}
