package config

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger: debug -> консольный вывод с цветными уровнями, иначе JSON.
// Format явно переопределяет выбор ("console" или "json").
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level := parseLogLevel(cfg.Level)

	var zcfg zap.Config
	if useConsole(cfg.Format, level) {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	// stdout занят выводом CLI
	zcfg.OutputPaths = []string{"stderr"}

	logger, err := zcfg.Build(zap.Fields(zap.String("service", "score-lookup")))
	if err != nil {
		return nil, err
	}

	return logger, nil
}

func useConsole(format string, level zapcore.Level) bool {
	switch strings.ToLower(format) {
	case "console":
		return true
	case "json":
		return false
	default:
		return level == zapcore.DebugLevel
	}
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
