package monitoring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger provides structured logging with domain helpers
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	out   io.Writer
}

// NewLogger creates a JSON logger writing to stdout at info level
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, slog.LevelInfo)
}

// NewLoggerTo creates a JSON logger writing to w
func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	lv := &slog.LevelVar{}
	lv.Set(level)

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lv,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
		level:  lv,
		out:    w,
	}
}

// ParseLevel maps debug|info|warn|error to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// AnalysisLogger logs a completed account analysis
func (l *Logger) AnalysisLogger(username, role string, overall, repos int, duration time.Duration, cacheSource string) {
	l.Info("Analysis Completed",
		"username", username,
		"role", role,
		"overall", overall,
		"repos", repos,
		"duration_ms", duration.Milliseconds(),
		"cache_source", cacheSource,
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// ExternalAPILogger logs external API calls
func (l *Logger) ExternalAPILogger(apiName, method, endpoint string, statusCode int, duration time.Duration, success bool) {
	level := slog.LevelDebug
	if !success {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "External API Call",
		"api_name", apiName,
		"method", method,
		"endpoint", endpoint,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// CloneLogger logs one clone attempt
func (l *Logger) CloneLogger(repo string, succeeded bool, duration time.Duration, err error) {
	if succeeded {
		l.Debug("Clone Completed", "repo", repo, "duration_ms", duration.Milliseconds())
		return
	}
	attrs := []any{"repo", repo, "duration_ms", duration.Milliseconds()}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	l.Warn("Clone Failed", attrs...)
}

// DegradeLogger logs a per-item failure that was replaced by a default signal
func (l *Logger) DegradeLogger(stage, subject string, err error) {
	l.Warn("Signal Degraded",
		"stage", stage,
		"subject", subject,
		"error", err.Error(),
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(cacheName, key string, hit bool, size int) {
	if len(key) > 48 {
		key = key[:48] + "..."
	}
	l.Debug("Cache Operation",
		"cache", cacheName,
		"key", key,
		"hit", hit,
		"cache_size", size,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Info("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}

var startTime = time.Now()
