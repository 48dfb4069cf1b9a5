// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the rotating file logger for the nabi client.
package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the file logger.
type Options struct {
	// Path is the log file location. Empty means ~/.nabi/logs/nabi.log.
	Path string

	// Level is the minimum level: debug, info, warn, error.
	Level string

	// Rotation limits.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultOptions returns the standard rotation policy.
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
	}
}

// DefaultPath returns ~/.nabi/logs/nabi.log.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".nabi", "logs", "nabi.log")
	}
	return filepath.Join(home, ".nabi", "logs", "nabi.log")
}

// =============================================================================
// LOGGER
// =============================================================================

// Logger is a leveled, module-tagged logger. Each component obtains a
// named child via Named and logs with structured fields.
type Logger struct {
	z *zap.Logger
}

// New builds a file-only logger with the given options.
func New(opts Options) *Logger {
	path := opts.Path
	if path == "" {
		path = DefaultPath()
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 5
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 30
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		parseLevel(opts.Level),
	)

	return &Logger{z: zap.New(core)}
}

// NewNop returns a logger that discards everything. Used in tests and
// before configuration is loaded.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Named returns a child logger tagged with the component name.
func (l *Logger) Named(module string) *Logger {
	return &Logger{z: l.z.With(zap.String("module", module))}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...zap.Field) { l.z.Info(msg, fields...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...zap.Field) { l.z.Warn(msg, fields...) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Sync flushes buffered entries. Called on shutdown.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// Field constructors, re-exported so call sites need only this package.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Bool     = zap.Bool
	Err      = zap.Error
	Duration = zap.Duration
	Any      = zap.Any
)

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// =============================================================================
// GLOBAL LOGGER
// =============================================================================

var (
	globalMu sync.RWMutex
	global   = NewNop()
)

// SetGlobal installs the process-wide logger. main calls this once
// after configuration loads.
func SetGlobal(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = l
}

// L returns the process-wide logger.
func L() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}
