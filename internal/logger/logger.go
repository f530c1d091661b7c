// Package logger wraps a process-wide zap logger.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop().Sugar()

// Init configures the global logger from LOG_LEVEL and APP_ENV.
func Init() {
	var level zapcore.Level
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      os.Getenv("APP_ENV") == "development",
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		log = zap.NewExample().Sugar()
		log.Warnw("failed to build logger, using fallback", "error", err)
		return
	}
	log = logger.Sugar()
}

func Debug(msg string, keysAndValues ...any) { log.Debugw(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...any)  { log.Infow(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...any)  { log.Warnw(msg, keysAndValues...) }
func Error(msg string, keysAndValues ...any) { log.Errorw(msg, keysAndValues...) }

func Fatal(msg string, err error) { log.Fatalw(msg, "error", err) }

func Sync() { _ = log.Sync() }
