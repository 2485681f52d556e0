/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package logging builds zerolog loggers and carries them through contexts.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/suparena/rowstore/config"
)

// Config holds logging configuration
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	Output     io.Writer // default: os.Stderr
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// FromSettings converts the logging section of the RowStore configuration.
// Unknown levels fall back to info.
func FromSettings(s config.LoggingConfig) Config {
	cfg := DefaultConfig()
	if lvl, err := zerolog.ParseLevel(s.Level); err == nil && s.Level != "" {
		cfg.Level = lvl
	}
	if s.Format == "json" || s.Format == "console" {
		cfg.Format = s.Format
	}
	return cfg
}

// New creates a new zerolog logger with the given configuration
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var output io.Writer = out
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
		}
	}

	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}
