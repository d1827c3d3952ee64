package middleware

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"go_course_progress/internal/config"

	"github.com/lmittmann/tint"
)

// ParseLevel は設定値のログレベルを slog.Level にする。不明な値は Info
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// NewAppLogger は APP_ENV=dev なら tint、それ以外は JSON のロガーを作る。
// log.format が "text" の場合も tint を使う
func NewAppLogger(w io.Writer, cfg config.LogConfig, appEnv string) *slog.Logger {
	logLevel := new(slog.LevelVar)
	level, known := ParseLevel(cfg.Level)
	logLevel.Set(level)

	var handler slog.Handler
	if strings.ToLower(appEnv) == "dev" || strings.ToLower(cfg.Format) == "text" {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
	}
	logger := slog.New(handler)
	if !known {
		logger.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", cfg.Level))
	}
	return logger
}
