package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

var requestLogKey = contextKey("request_log")

// requestLog はアクセスログのうち内側のミドルウェアが後から埋める項目。
type requestLog struct {
	userID string
}

// noteUserID は認証済みユーザーIDをアクセスログに残す。
// ロギングミドルウェアを通っていないリクエストでは何もしない。
func noteUserID(ctx context.Context, userID string) {
	if rl, ok := ctx.Value(requestLogKey).(*requestLog); ok {
		rl.userID = userID
	}
}

// accessLogLevel は4xxをWarn、5xxをErrorに振り分ける。
func accessLogLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// NewLoggingMiddleware は1リクエストにつき1行の構造化アクセスログ "http_request" を出力する。
// 項目はmethod, path, status, bytes, duration_msで、認証済みならuser_idが加わる。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			rl := &requestLog{}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestLogKey, rl)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Int("bytes", rec.bytes),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			}
			if rl.userID == "" {
				rl.userID, _ = UserIDFromContext(r.Context())
			}
			if rl.userID != "" {
				attrs = append(attrs, slog.String("user_id", rl.userID))
			}

			logger.LogAttrs(r.Context(), accessLogLevel(rec.statusCode), "http_request", attrs...)
		})
	}
}
