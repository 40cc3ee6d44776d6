package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry %q: %v", buf.String(), err)
	}
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{" error ", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	if ParseLogFormat("text") != FormatText {
		t.Error("Expected text format")
	}
	if ParseLogFormat("TEXT") != FormatText {
		t.Error("Expected case-insensitive text format")
	}
	if ParseLogFormat("json") != FormatJSON {
		t.Error("Expected json format")
	}
	if ParseLogFormat("yaml") != FormatJSON {
		t.Error("Expected unknown formats to fall back to json")
	}
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, FormatJSON, &buf)

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if buf.Len() > 0 {
			t.Error("Debug message should not be logged at Info level")
		}
	})

	t.Run("info logged as json", func(t *testing.T) {
		buf.Reset()
		logger.WithField("module", "notes").Info("info message")

		entry := decodeEntry(t, &buf)
		if entry["level"] != "info" {
			t.Errorf("Expected level info, got %v", entry["level"])
		}
		if entry["msg"] != "info message" {
			t.Errorf("Expected message 'info message', got %v", entry["msg"])
		}
		if entry["module"] != "notes" {
			t.Errorf("Expected module field, got %v", entry["module"])
		}
	})
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, FormatText, &buf)

	logger.Debug("text message")
	if !strings.Contains(buf.String(), "msg=\"text message\"") {
		t.Errorf("Expected text formatted output, got %q", buf.String())
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %s", logger.GetLevel())
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	if GetRequestID(ctx) != "" {
		t.Error("Expected empty request ID")
	}
	if GetLogger(ctx) != logrus.StandardLogger() {
		t.Error("Expected standard logger fallback")
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("Expected req-123, got %s", got)
	}

	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, FormatJSON, &buf)
	ctx = WithLogger(ctx, logger)

	FromContext(ctx).Info("with request")
	entry := decodeEntry(t, &buf)
	if entry["request_id"] != "req-123" {
		t.Errorf("Expected request_id field, got %v", entry["request_id"])
	}
	if _, ok := entry["trace_id"]; ok {
		t.Error("Expected no trace_id without an active span")
	}
}

func TestFromContext_TraceFields(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	ctx = WithLogger(ctx, NewLogger(InfoLevel, FormatJSON, &buf))

	FromContext(ctx).Info("traced")
	entry := decodeEntry(t, &buf)

	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("Expected trace_id %s, got %v", span.SpanContext().TraceID(), entry["trace_id"])
	}
	if entry["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("Expected span_id %s, got %v", span.SpanContext().SpanID(), entry["span_id"])
	}
}
