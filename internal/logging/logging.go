// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Config selects where log lines go and how verbose they are.
type Config struct {
	Level   string // debug, info, warn, error
	File    string // JSON lines appended here when set
	Console bool   // also write to stderr
	Pretty  bool   // human-readable console output
}

// Logger pairs the zerolog logger with the file it may own.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New creates a logger from cfg. With neither File nor Console set, output is
// discarded.
func New(cfg Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.Console {
		var console io.Writer = os.Stderr
		if cfg.Pretty {
			console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		}
		writers = append(writers, console)
	}

	var file *os.File
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	return &Logger{
		Logger: zerolog.New(out).Level(level).With().Timestamp().Logger(),
		file:   file,
	}, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
