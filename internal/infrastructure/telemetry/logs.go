package telemetry

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapOTELCore returns a core that forwards entries at or above level to
// the OpenTelemetry logger provider. A nil provider yields a no-op core.
func NewZapOTELCore(name string, provider *sdklog.LoggerProvider, level zapcore.Level) zapcore.Core {
	if provider == nil {
		return zapcore.NewNopCore()
	}
	return &levelFilterCore{
		Core: otelzap.NewCore(name, otelzap.WithLoggerProvider(provider)),
		min:  level,
	}
}

// BridgeLogger tees base into the provider's export pipeline. The console or
// file output of base is unchanged.
func BridgeLogger(base *zap.Logger, p *Provider, name string) *zap.Logger {
	if p == nil || p.LoggerProvider() == nil {
		return base
	}
	otelCore := NewZapOTELCore(name, p.LoggerProvider(), zapcore.InfoLevel)
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, otelCore)
	}))
}

// otelzap has no minimum level of its own.
type levelFilterCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), min: c.min}
}
