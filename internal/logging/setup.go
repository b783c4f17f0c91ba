package logging

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"

	"github.com/pawciobiel/golubbounce/internal/config"
)

func Setup(logConfig *config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch logConfig.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch logConfig.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case "pretty":
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

var (
	logger *slog.Logger
	once   sync.Once
)

func InitLogging(logConfig *config.LoggingConfig) {
	once.Do(func() {
		logger = Setup(logConfig)
	})
}

func GetLogger() *slog.Logger {
	if logger == nil {
		panic("logger not initialized. Call logging.InitLogging(cfg) first.")
	}
	return logger
}

func InitTestLogging() {
	level := "error" // Quiet during tests by default
	if os.Getenv("DEBUG") == "1" {
		level = "debug"
	}

	logger = Setup(&config.LoggingConfig{
		Level:  level,
		Format: "text",
	})
}
