package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSONWithTraceContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", ServiceName: "yardstick"}, &buf)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	log.InfoContext(ctx, "note created", TenantID("tenant-acme"), NoteID("n1"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "note created", record["msg"])
	assert.Equal(t, "yardstick", record["service"])
	assert.Equal(t, "tenant-acme", record["tenant_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text"}, &buf)

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown", Error(nil))
	assert.Contains(t, buf.String(), "shown")
}

func TestFanoutHandler(t *testing.T) {
	var a, b bytes.Buffer
	h := NewFanoutHandler(
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h).With(Component("test"))

	log.Info("info only")
	assert.Contains(t, a.String(), "info only")
	assert.Empty(t, b.String())

	log.Error("both")
	assert.Contains(t, a.String(), "both")
	assert.Contains(t, b.String(), `"component":"test"`)
}

// memoryExporter keeps exported log records for inspection.
type memoryExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryExporter) ForceFlush(context.Context) error { return nil }

// TestPurpose: Validates that with OTEL enabled records reach the configured LoggerProvider as well as the writer.
// Scope: Unit Test
// Expected: The exporter receives the record body and attributes; the writer still gets the line.
// Test Case ID: LOG-01
func TestNew_BridgesToLoggerProvider(t *testing.T) {
	exporter := &memoryExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var buf bytes.Buffer
	log := New(Config{
		Level:          "info",
		Format:         "json",
		ServiceName:    "yardstick",
		OTELEnabled:    true,
		LoggerProvider: provider,
	}, &buf)

	log.Warn("free plan limit reached", TenantID("tenant-acme"))

	assert.Contains(t, buf.String(), "free plan limit reached")

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	require.Len(t, exporter.records, 1)
	rec := exporter.records[0]
	assert.Equal(t, "free plan limit reached", rec.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, rec.Severity())

	attrs := map[string]string{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.String()
		return true
	})
	assert.Equal(t, "tenant-acme", attrs["tenant_id"])
}

// tagHandler appends its own tag to every record it handles.
type tagHandler struct {
	tag  string
	seen []slog.Record
}

func (h *tagHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *tagHandler) Handle(_ context.Context, r slog.Record) error {
	r.AddAttrs(slog.String("sink", h.tag))
	h.seen = append(h.seen, r)
	return nil
}

func (h *tagHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *tagHandler) WithGroup(string) slog.Handler      { return h }

func TestFanoutHandler_HandlersDoNotShareRecords(t *testing.T) {
	a, b := &tagHandler{tag: "a"}, &tagHandler{tag: "b"}
	log := slog.New(NewFanoutHandler(a, b))

	// More attrs than a record stores inline, so additions spill into a shared slice.
	log.Info("fanned", "k1", 1, "k2", 2, "k3", 3, "k4", 4, "k5", 5, "k6", 6)

	sinks := func(h *tagHandler) []string {
		require.Len(t, h.seen, 1)
		var out []string
		h.seen[0].Attrs(func(attr slog.Attr) bool {
			if attr.Key == "sink" {
				out = append(out, attr.Value.String())
			}
			return true
		})
		return out
	}
	assert.Equal(t, []string{"a"}, sinks(a))
	assert.Equal(t, []string{"b"}, sinks(b))
}
