// Package logging configures the zerolog loggers used across sitehost.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level, format and optional file output.
type Config struct {
	Level  string
	Format string // "console" or "json"
	File   FileConfig
}

// FileConfig controls the rotating log file.
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Setup builds the application logger from cfg and installs it as the global
// zerolog logger. The returned cleanup closes the log file, if any.
func Setup(cfg Config, stderr io.Writer) (zerolog.Logger, func(), error) {
	if stderr == nil {
		stderr = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var console io.Writer = stderr
	if cfg.Format != "json" {
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: "15:04:05"}
	}

	writer := console
	cleanup := func() {}

	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return zerolog.Nop(), nil, fmt.Errorf("logging.file.path is required when file logging is enabled")
		}
		// Logs may contain project ids and paths; keep them owner-only.
		if err := os.MkdirAll(filepath.Dir(cfg.File.Path), 0700); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		}

		writer = io.MultiWriter(console, fileWriter)
		cleanup = func() {
			_ = fileWriter.Close()
		}
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	log.Logger = logger

	if cfg.File.Enabled {
		if err := os.Chmod(cfg.File.Path, 0600); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("file", cfg.File.Path).Msg("failed to set secure permissions on log file")
		}
	}

	return logger, cleanup, nil
}
