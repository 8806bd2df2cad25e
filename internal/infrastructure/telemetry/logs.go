package telemetry

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BridgeLogger tees logger into the OTLP log exporter. Entries below the
// logger's own level are filtered before they reach the bridge. With
// telemetry disabled logger is returned unchanged.
func (p *Providers) BridgeLogger(logger *zap.Logger, serviceName string) *zap.Logger {
	if p.logs == nil {
		return logger
	}
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		bridge := otelzap.NewCore(serviceName, otelzap.WithLoggerProvider(p.logs))
		return zapcore.NewTee(core, &levelFilterCore{Core: bridge, enabler: core})
	}))
}

// levelFilterCore applies another core's level to the bridge, which has none
type levelFilterCore struct {
	zapcore.Core
	enabler zapcore.LevelEnabler
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return c.enabler.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), enabler: c.enabler}
}
