package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Fields represents structured log fields
type Fields map[string]interface{}

var base = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// Setup replaces the process logger with a JSON logger at the given level
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	base = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(base)
	return base
}

// WithContext extracts request context for logging
func WithContext(c *gin.Context) Fields {
	return Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"origin":     c.GetHeader("Origin"),
	}
}

// Info logs an informational message with structured fields
func Info(msg string, fields Fields) {
	base.Info(msg, fields.attrs()...)
	breadcrumb("info", sentry.LevelInfo, msg, fields)
}

// Warn logs a warning message with structured fields
func Warn(msg string, fields Fields) {
	base.Warn(msg, fields.attrs()...)
	breadcrumb("warning", sentry.LevelWarning, msg, fields)
}

// Debug logs a debug message with structured fields
func Debug(msg string, fields Fields) {
	if !base.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	base.Debug(msg, fields.attrs()...)
	breadcrumb("debug", sentry.LevelDebug, msg, fields)
}

// Error logs an error message with structured fields and sends it to Sentry
func Error(msg string, err error, fields Fields) {
	attrs := fields.attrs()
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	base.Error(msg, attrs...)

	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range fields {
			scope.SetContext(key, map[string]interface{}{
				"value": value,
			})
		}

		// Tags for filtering in Sentry
		for _, tag := range []string{"request_id", "provider", "error_kind"} {
			if v, ok := fields[tag].(string); ok {
				scope.SetTag(tag, v)
			}
		}

		if err != nil {
			hub.CaptureException(err)
		} else {
			scope.SetLevel(sentry.LevelError)
			hub.CaptureMessage(msg)
		}
	})
}

func breadcrumb(kind string, level sentry.Level, msg string, fields Fields) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.AddBreadcrumb(&sentry.Breadcrumb{
			Type:     kind,
			Category: "log",
			Message:  msg,
			Data:     map[string]interface{}(fields),
			Level:    level,
		}, nil)
	}
}

// attrs flattens fields into slog key/value pairs in a stable order
func (f Fields) attrs() []any {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(f)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
