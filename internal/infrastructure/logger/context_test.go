package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestFromContext(t *testing.T) {
	t.Run("returns the attached logger", func(t *testing.T) {
		log, logs := observed()
		FromContext(WithContext(context.Background(), log)).Info("hello")
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("falls back to a no-op logger", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestWithRequestID(t *testing.T) {
	log, logs := observed()

	ctx, enriched := WithRequestID(context.Background(), log, "req-123")
	enriched.Info("handled")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Equal(t, "req-123", logs.All()[0].ContextMap()["request_id"])

	FromContext(ctx).Info("again")
	assert.Equal(t, "req-123", logs.All()[1].ContextMap()["request_id"])
}

func TestWithStoreID(t *testing.T) {
	log, logs := observed()

	ctx, enriched := WithStoreID(context.Background(), log, "store-9")
	enriched.Info("planned")

	assert.Equal(t, "store-9", GetStoreID(ctx))
	assert.Equal(t, "store-9", logs.All()[0].ContextMap()["store_id"])
	assert.Empty(t, GetRequestID(ctx))

	ctx, _ = WithRequestID(ctx, FromContext(ctx), "req-1")
	L(ctx).Info("both")
	fields := logs.All()[1].ContextMap()
	assert.Equal(t, "store-9", fields["store_id"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestL(t *testing.T) {
	t.Run("adds trace fields for a valid span", func(t *testing.T) {
		log, logs := observed()
		traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
		spanID, _ := trace.SpanIDFromHex("0102030405060708")
		spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(WithContext(context.Background(), log), spanCtx)

		L(ctx).Info("traced")

		fields := logs.All()[0].ContextMap()
		assert.Equal(t, traceID.String(), fields["trace_id"])
		assert.Equal(t, spanID.String(), fields["span_id"])
	})

	t.Run("leaves the logger alone without a span", func(t *testing.T) {
		log, logs := observed()
		L(WithContext(context.Background(), log)).Info("untraced")

		_, ok := logs.All()[0].ContextMap()["trace_id"]
		assert.False(t, ok)
	})
}
