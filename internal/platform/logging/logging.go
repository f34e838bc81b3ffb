package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/ogurasousui/onboarding-engine/internal/platform/config"
)

// New は log 設定に従って slog.Logger を生成します。w が nil の場合は標準エラー出力に書き込みます。
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel はログレベル文字列を slog.Level に変換します。未知の値は info として扱います。
func ParseLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
