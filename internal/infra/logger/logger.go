package logger

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

var Logger *slog.Logger

// New creates a JSON logger writing to stdout, with trace context
// attached to every record when a span is active.
func New() *slog.Logger {
	return NewWithOTel(false)
}

// NewWithOTel creates the service logger. With enableOTel, records are
// additionally exported through the otelslog bridge.
func NewWithOTel(enableOTel bool) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	var handler slog.Handler
	if enableOTel {
		handler = NewMultiHandler(level)
	} else {
		handler = NewTraceContextHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))
	}

	Logger = slog.New(handler)
	Logger.Info("logger_initialized", slog.Bool("otel_enabled", enableOTel))
	return Logger
}

// MultiHandler fans each record out to stdout and the OTel exporter.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler builds the fan-out handler. The stdout branch keeps
// trace_id/span_id so local logs correlate with exported ones.
func NewMultiHandler(level slog.Level) *MultiHandler {
	stdoutHandler := NewTraceContextHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	otelHandler := otelslog.NewHandler(
		"docqa",
		otelslog.WithLoggerProvider(global.GetLoggerProvider()),
	)

	return &MultiHandler{
		handlers: []slog.Handler{
			stdoutHandler,
			otelHandler,
		},
	}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			_ = handler.Handle(ctx, r)
		}
	}
	return nil
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: next}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: next}
}
