package logging

import (
	"fmt"
	"sync"

	"github.com/btmxh/gym-tsfr/internal/infrastructure/configs"
)

var once sync.Once

type Logger interface {
	Init()

	Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Debugf(template string, args ...any)

	Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Infof(template string, args ...any)

	Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Warnf(template string, args ...any)

	Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Errorf(template string, args ...any)

	Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Fatalf(template string, args ...any)
}

type LoggerConfig struct {
	FilePath string
	Encoding string
	Level    string
	Logger   string
}

func FromConfig(cfg configs.LoggerConfig) *LoggerConfig {
	return &LoggerConfig{
		FilePath: cfg.FilePath,
		Encoding: cfg.Encoding,
		Level:    cfg.Level,
		Logger:   cfg.Logger,
	}
}

func NewLogger(cfg *LoggerConfig) (Logger, error) {
	var logger Logger
	switch cfg.Logger {
	case "zap":
		logger = newZapLogger(cfg)
	case "zerolog":
		logger = newZeroLogger(cfg)
	default:
		return nil, fmt.Errorf("logger not supported: %q, supported loggers: [zap, zerolog]", cfg.Logger)
	}

	logger.Init()
	return logger, nil
}
