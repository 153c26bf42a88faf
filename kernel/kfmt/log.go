package kfmt

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger   = newLogger(sinkWriter{})
)

// newLogger builds a logger that renders entries as single console lines
// without timestamps. The kernel has no wall clock.
func newLogger(w zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zapcore.EncoderConfig{
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeName:       encodeName,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), w, logLevel)
	return zap.New(core).Sugar()
}

func encodeName(name string, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + name + "]")
}

// Logger returns the kernel logger. Its output goes to the active sink. Use
// Named to tag entries with the subsystem that emitted them.
func Logger() *zap.SugaredLogger {
	return logger
}

// SetLevel changes the minimum level of entries emitted by Logger.
func SetLevel(level zapcore.Level) {
	logLevel.SetLevel(level)
}
