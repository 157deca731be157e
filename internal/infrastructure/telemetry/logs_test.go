package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memoryExporter keeps exported records in memory.
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

func (e *memoryExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestNewZapOTELCore_NilProvider(t *testing.T) {
	core := NewZapOTELCore("resys", nil, zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_LevelFilter(t *testing.T) {
	exporter := &memoryExporter{}
	lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	core := NewZapOTELCore("resys", lp, zapcore.WarnLevel)
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))

	log := zap.New(core).With(zap.String("order", "R100"))
	log.Info("dropped")
	log.Warn("shipment canceled")

	assert.Equal(t, []string{"shipment canceled"}, exporter.bodies())
}

func TestBridgeLogger(t *testing.T) {
	base, observed := observer.New(zapcore.DebugLevel)
	baseLogger := zap.New(base)

	t.Run("without logs export returns the base logger", func(t *testing.T) {
		p := &Provider{}
		assert.Same(t, baseLogger, BridgeLogger(baseLogger, p, "resys"))
		assert.Same(t, baseLogger, BridgeLogger(baseLogger, nil, "resys"))
	})

	t.Run("tees entries to both outputs", func(t *testing.T) {
		exporter := &memoryExporter{}
		lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
		t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

		bridged := BridgeLogger(baseLogger, &Provider{logs: lp}, "resys")
		bridged.Info("order completed")
		bridged.Debug("local only")

		require.Equal(t, 2, observed.Len())
		assert.Equal(t, []string{"order completed"}, exporter.bodies())
	})
}
