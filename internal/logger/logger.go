// Package logger sets up structured logging for the movies binaries.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/lmittmann/tint"
)

// New returns a logger writing JSON lines to w, or colored text when
// format is "text".
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	var handler slog.Handler
	if format == "text" {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// Initialize builds a logger with New and installs it as the slog default.
func Initialize(w io.Writer, format string, level slog.Level) *slog.Logger {
	log := New(w, format, level)
	slog.SetDefault(log)
	log.Debug("logger initialized", "format", format, "level", level)
	return log
}

// lambdaTraceKey is the context key aws-lambda-go stores the X-Ray trace
// header under.
const lambdaTraceKey = "x-amzn-trace-id"

// LambdaTraceHeader returns the raw X-Ray trace header of the invocation.
func LambdaTraceHeader(ctx context.Context) string {
	header, _ := ctx.Value(lambdaTraceKey).(string)
	return header
}

// RequestID returns the Lambda request id carried by ctx.
func RequestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}

// ForRequest returns base enriched with the request and X-Ray trace ids.
// traceID overrides the id parsed from the Lambda trace header.
func ForRequest(ctx context.Context, base *slog.Logger, traceID string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}

	log := base
	if id := RequestID(ctx); id != "" {
		log = log.With("aws_request_id", id)
	}

	if traceID == "" {
		traceID = rootTraceID(LambdaTraceHeader(ctx))
	}
	if traceID != "" {
		log = log.With("xray_trace_id", traceID)
	}
	return log
}

// rootTraceID extracts Root from a header such as
// "Root=1-5759e988-bd862e3fe1be46a994272793;Parent=53995c3f42cd8ad8;Sampled=1".
func rootTraceID(header string) string {
	for _, part := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == "Root" {
			return v
		}
	}
	return ""
}

// Nullable returns nil for an empty string so it logs as JSON null.
func Nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
