package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tharunaditya/certserver/internal/config"
)

// NewLogger creates a zerolog.Logger writing to stdout using the configured
// level and format
func NewLogger(cfg config.LoggingConfig, service string) zerolog.Logger {
	return New(os.Stdout, cfg, service)
}

// New is NewLogger with an explicit writer
func New(w io.Writer, cfg config.LoggingConfig, service string) zerolog.Logger {
	if cfg.Format == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(w).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
