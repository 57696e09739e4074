// Package log provides the process-wide structured logger. Every
// package in this daemon logs through log.Logger rather than
// constructing its own zap instance.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide sugared logger. It is initialized with a
// sane production default so packages can log during init() before
// main has a chance to call Init with the configured level.
var Logger = mustDefault()

func mustDefault() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar()
}

// Init replaces Logger with one configured for level and, when pretty
// is true, a human-readable console encoder instead of JSON. When
// logFilePath is non-empty, logs are written to a rotating file via
// lumberjack (capped at logFileMaxSizeMB, default 100MB) instead of
// stdout — the long-running, privileged nature of this daemon makes
// unbounded stdout/journal growth the wrong default for a standalone
// deployment. Intended to be called once, early in main, after flags
// are parsed.
func Init(level string, pretty bool, logFilePath string, logFileMaxSizeMB int) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return err
		}
	}

	if logFilePath == "" {
		cfg := zap.NewProductionConfig()
		if pretty {
			cfg = zap.NewDevelopmentConfig()
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)

		l, err := cfg.Build()
		if err != nil {
			return err
		}
		Logger = l.Sugar()
		return nil
	}

	Logger = CreateLoggerWithLumberjack(logFilePath, logFileMaxSizeMB, lvl)
	return nil
}

// CreateLoggerWithLumberjack builds a JSON-encoded logger writing to
// logFile through a lumberjack.Logger, rotating once the file exceeds
// maxSizeMB (megabytes). A zero or negative maxSizeMB falls back to
// lumberjack's own default (100MB).
func CreateLoggerWithLumberjack(logFile string, maxSizeMB int, level zapcore.Level) *zap.SugaredLogger {
	if maxSizeMB < 0 {
		maxSizeMB = 0
	}
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSizeMB,
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotator), level)
	return zap.New(core).Sugar()
}

// Sync flushes any buffered log entries. Call it from a deferred main
// shutdown; the returned error is safe to ignore when it complains
// about stdout/stderr not supporting sync, which happens on most
// terminals.
func Sync() error {
	return Logger.Sync()
}
