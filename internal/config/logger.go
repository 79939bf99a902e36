package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger according to LogFormat/LogLevel.
func NewLogger(cfg Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("unsupported log level %q: %w", cfg.LogLevel, err)
	}

	var logger zerolog.Logger
	switch cfg.LogFormat {
	case "json":
		logger = zerolog.New(os.Stdout)
	default:
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	return logger.Level(level).With().Timestamp().Logger(), nil
}
