// ABOUTME: This file provides context keys for request-scoped log attributes
// ABOUTME: TraceContextHandler picks them up and attaches them to every record
package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Business context keys, following OpenTelemetry semantic
	// conventions with a 'docqa.' prefix
	RequestIDKey     ContextKey = "docqa.request.id"
	DocumentIDKey    ContextKey = "docqa.document.id"
	PipelineStageKey ContextKey = "docqa.pipeline.stage"
)

// WithRequestID adds the request ID to context for observability
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithDocumentID adds the document ID to context for observability
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, DocumentIDKey, documentID)
}

// WithPipelineStage adds the pipeline stage to context for observability
func WithPipelineStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, PipelineStageKey, stage)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
