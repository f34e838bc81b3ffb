package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ogurasousui/onboarding-engine/internal/adapters/grpc/handler"
	"github.com/ogurasousui/onboarding-engine/internal/platform/config"
)

func TestStorage_Memory(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverMemory}}

	repos, closeFn, err := Storage(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	if repos.Users == nil || repos.Tx == nil || repos.Stats == nil {
		t.Fatalf("repositories not wired: %+v", repos)
	}

	services := NewServices(repos)
	names := map[string]bool{}
	for _, h := range services.Handlers() {
		names[h.ServiceName()] = true
	}
	for _, want := range []string{handler.UserServiceName, handler.OnboardingServiceName, handler.CourseServiceName} {
		if !names[want] {
			t.Fatalf("missing service %s", want)
		}
	}
}

func TestStorage_UnknownDriver(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}

	if _, _, err := Storage(context.Background(), cfg, logger); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestStorage_PostgresRejectsUnknownIsolationLevel(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Storage:  config.StorageConfig{Driver: config.StorageDriverPostgres},
		Database: config.DatabaseConfig{IsolationLevel: "snapshot"},
	}

	if _, _, err := Storage(context.Background(), cfg, logger); err == nil {
		t.Fatal("expected error for unknown isolation level")
	}
}
