package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/ogurasousui/onboarding-engine/internal/adapters/grpc/handler"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type pingService struct{}

func (pingService) ServiceName() string { return "test.v1.PingService" }

func (pingService) Methods() map[string]handler.Method {
	return map[string]handler.Method{
		"Ping": func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return structpb.NewStruct(map[string]any{"pong": true})
		},
	}
}

func TestServer_HealthAndServices(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New("bufnet", logger, []handler.Service{pingService{}}, []Option{WithShutdownTimeout(time.Second)})

	lis := bufconn.Listen(1 << 20)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health := healthpb.NewHealthClient(conn)
	for _, name := range []string{"", "test.v1.PingService"} {
		resp, err := health.Check(ctx, &healthpb.HealthCheckRequest{Service: name})
		if err != nil {
			t.Fatalf("health check %q: %v", name, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("service %q not serving: %v", name, resp.GetStatus())
		}
	}

	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, handler.FullMethod("test.v1.PingService", "Ping"), &structpb.Struct{}, out); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !out.GetFields()["pong"].GetBoolValue() {
		t.Fatalf("unexpected response: %v", out)
	}

	srv.GracefulStop()
	if err := <-serveErr; err != nil {
		t.Fatalf("serve returned error: %v", err)
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New("127.0.0.1:0", logger, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
