package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// Init configures the process logger. format is "console" or "json";
// verbose lowers the level to debug.
func Init(verbose bool, format string) error {
	var config zap.Config

	if format == "json" {
		config = zap.NewProductionConfig()
	} else if format == "console" || format == "" {
		config = zap.NewDevelopmentConfig()
		config.Encoding = "console"
	} else {
		return fmt.Errorf("invalid log format: %s", format)
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Keep stdout clean for user-facing command output.
	config.OutputPaths = []string{"stderr"}

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger = built
	return nil
}

// L returns the process logger. Before Init it is a no-op logger, so
// library code may always log safely.
func L() *zap.Logger {
	return logger
}

// Sync flushes any buffered log entries.
func Sync() error {
	return logger.Sync()
}
