package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureRecord(t *testing.T, ctx context.Context) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))
	log.InfoContext(ctx, "test_event")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestTraceContextHandler_AttachesBusinessContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	ctx = WithDocumentID(ctx, "doc-7")
	ctx = WithPipelineStage(ctx, "hybrid_search")

	record := captureRecord(t, ctx)

	assert.Equal(t, "req-42", record["request_id"])
	assert.Equal(t, "doc-7", record["document_id"])
	assert.Equal(t, "hybrid_search", record["pipeline_stage"])
}

func TestTraceContextHandler_BareContext(t *testing.T) {
	record := captureRecord(t, context.Background())

	assert.NotContains(t, record, "request_id")
	assert.NotContains(t, record, "trace_id")
	assert.Equal(t, "test_event", record["msg"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "level %q", tt.input)
	}
}
