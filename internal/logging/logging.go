// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log entry.
const ServiceName = "chvcore"

// ParseLevel maps debug, info, warn and error to zap levels. Anything else
// is info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New returns a logger writing JSON to stdout, or human-readable output when
// format is "console".
func New(level, format string) (*zap.Logger, error) {
	return NewWithOutput(level, format, "stdout")
}

// NewWithOutput is New with an explicit zap sink such as "stderr" or a file
// path. One-shot CLI commands log to stderr to keep stdout for their result.
func NewWithOutput(level, format, output string) (*zap.Logger, error) {
	cfg := Config(level, format)
	cfg.OutputPaths = []string{output}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return decorate(logger), nil
}

// Config returns the zap configuration New builds from.
func Config(level, format string) zap.Config {
	var cfg zap.Config
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	return cfg
}

func decorate(logger *zap.Logger) *zap.Logger {
	logger = logger.With(zap.String("service_name", ServiceName))
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		logger = logger.With(zap.String("hostname", hostname))
	}
	return logger
}
