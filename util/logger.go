package util

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

var logEncodings = map[string]string{
	"structured": "json",
	"console":    "console",
}

func NewLogger(level, format string) (*zap.Logger, error) {
	zapLevel, ok := logLevels[level]
	if !ok {
		return nil, fmt.Errorf("unsupported log level: %s", level)
	}

	encoding, ok := logEncodings[format]
	if !ok {
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.Encoding = encoding
	cfg.DisableStacktrace = true
	if encoding == "console" {
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	return cfg.Build()
}
