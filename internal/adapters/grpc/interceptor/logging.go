package interceptor

import (
	"context"
	"log/slog"
	"time"

	"github.com/ogurasousui/onboarding-engine/internal/core/access"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Logging は RPC ごとにメソッド・ステータスコード・所要時間を記録します。
// 認証インターセプタより後ろに置くと user_id も記録されます。
func Logging(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		attrs := []any{
			slog.String("method", info.FullMethod),
			slog.String("code", code.String()),
			slog.Duration("duration", time.Since(start)),
		}
		if p, ok := access.PrincipalFromContext(ctx); ok {
			attrs = append(attrs, slog.String("user_id", p.UserID))
		}

		switch code {
		case codes.OK:
			logger.InfoContext(ctx, "rpc completed", attrs...)
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
			logger.ErrorContext(ctx, "rpc failed", append(attrs, slog.String("error", err.Error()))...)
		default:
			logger.WarnContext(ctx, "rpc rejected", append(attrs, slog.String("error", err.Error()))...)
		}
		return resp, err
	}
}
