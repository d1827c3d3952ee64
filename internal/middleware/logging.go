package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// logCtxKey はコンテキストにロガーを格納するためのキー
type logCtxKey struct{}

// sensitiveHeaders はログ出力時にマスクするヘッダー (小文字)
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"x-api-key":     true,
}

// maxDetailBody を超えるボディは詳細ログで切り詰める
const maxDetailBody = 2048

// responseLogger は http.ResponseWriter をラップし、ステータスコードとボディを記録する
type responseLogger struct {
	http.ResponseWriter
	statusCode int
	bytesOut   int
	body       *bytes.Buffer
}

func newResponseLogger(w http.ResponseWriter, captureBody bool) *responseLogger {
	rl := &responseLogger{ResponseWriter: w, statusCode: http.StatusOK}
	if captureBody {
		rl.body = new(bytes.Buffer)
	}
	return rl
}

func (rl *responseLogger) WriteHeader(statusCode int) {
	rl.statusCode = statusCode
	rl.ResponseWriter.WriteHeader(statusCode)
}

func (rl *responseLogger) Write(b []byte) (int, error) {
	n, err := rl.ResponseWriter.Write(b)
	rl.bytesOut += n
	if rl.body != nil && rl.body.Len() < maxDetailBody {
		rl.body.Write(b[:n])
	}
	return n, err
}

// Flush は CSV など逐次書き出しのレスポンス用
func (rl *responseLogger) Flush() {
	if f, ok := rl.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingMiddleware はリクエストスコープのロガーをコンテキストに入れ、開始・終了を記録する。
// Debug レベルではヘッダーとボディの詳細も出力する
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			requestLogger := logger.With("req_id", middleware.GetReqID(r.Context()))
			r = r.WithContext(WithLogger(r.Context(), requestLogger))

			requestLogger.Info("Request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			detail := logger.Enabled(r.Context(), slog.LevelDebug)
			var reqBody []byte
			if detail && r.Body != nil {
				reqBody, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewBuffer(reqBody))
			}

			rl := newResponseLogger(w, detail)
			next.ServeHTTP(rl, r)

			latency := time.Since(startTime)
			level := slog.LevelInfo
			if rl.statusCode >= 500 {
				level = slog.LevelError
			} else if rl.statusCode >= 400 {
				level = slog.LevelWarn
			}
			requestLogger.Log(r.Context(), level, "Request completed",
				"status", rl.statusCode,
				"latency_ms", float64(latency.Nanoseconds())/1e6,
				"bytes_out", rl.bytesOut,
			)

			if detail {
				requestLogger.Debug("Request detail",
					"headers", formatHeaders(r.Header),
					"body", truncate(reqBody),
				)
				requestLogger.Debug("Response detail",
					"status", rl.statusCode,
					"headers", formatHeaders(rl.Header()),
					"body", truncate(rl.body.Bytes()),
				)
			}
		})
	}
}

// WithLogger はロガーをコンテキストに格納する (cron ジョブなど HTTP 以外の処理でも使う)
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, logCtxKey{}, logger)
}

// GetLogger はコンテキストからロガーを取得する。なければ slog.Default()
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(logCtxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func truncate(b []byte) string {
	if len(b) > maxDetailBody {
		return string(b[:maxDetailBody]) + "...(truncated)"
	}
	return string(b)
}

func formatHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			result[key] = "[SENSITIVE]"
		} else {
			result[key] = strings.Join(values, ", ")
		}
	}
	return result
}
