// Package logger configures the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options mirrors config.LoggingConfig.
type Options struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Console defaults to os.Stderr; stdout is reserved for command output.
	Console io.Writer
}

var rotating *lumberjack.Logger

// Init replaces log.Logger. With File set, JSON lines also go to a rotated
// file next to the console output.
func Init(opts Options) error {
	sinks := []io.Writer{console(opts)}
	if opts.File != "" {
		w, err := openRotating(opts)
		if err != nil {
			return err
		}
		sinks = append(sinks, w)
	}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(lvl).
		With().Timestamp().
		Logger()
	return nil
}

func console(opts Options) io.Writer {
	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	if !opts.Pretty {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
}

func openRotating(opts Options) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}
	Close()
	rotating = &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return rotating, nil
}

// Close releases the rotated log file, if any.
func Close() {
	if rotating != nil {
		_ = rotating.Close()
		rotating = nil
	}
}
