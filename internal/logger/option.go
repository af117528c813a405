package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// coreWithLevel replaces the level check of the wrapped core.
type coreWithLevel struct {
	zapcore.Core

	// level is the minimum level this core accepts, regardless of the wrapped one.
	level zapcore.Level
}

// Enabled reports whether l passes this core's own level.
func (c *coreWithLevel) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check adds the core to the checked entry when the entry passes this core's level.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *coreWithLevel) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With keeps the level override on derived cores.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *coreWithLevel) With(fields []zapcore.Field) zapcore.Core {
	return &coreWithLevel{
		c.Core.With(fields),
		c.level,
	}
}

// WithLevel overrides the minimum level of an existing logger, lower or higher
// than the shared one. Used where output must not depend on log_level.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &coreWithLevel{core, lvl}
	})
}

// Always returns l with a level override so warnings and above are written
// even when the configured level is higher.
func Always(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.WithOptions(WithLevel(zapcore.WarnLevel))
}
