package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn or error
	FilePath   string // Path to log file; empty disables the file sink
	MaxSize    int64  // Max size in bytes before rotation (default: 10MB)
	MaxAge     int    // Max age in days (default: 7)
	MaxBackups int    // Max number of backup files (default: 5)
	Console    bool   // Also log to stderr
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	logPath := filepath.Join(home, ".taskflow", "logs", "taskflow.log")

	return Config{
		Level:      "info",
		FilePath:   logPath,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    false, // Disabled by default to not interfere with TUI
	}
}

// ParseLevel converts a level name to a zap level, defaulting to info
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

var (
	mu     sync.Mutex
	global = zap.NewNop()
	sink   *RotatingFile
)

// New builds a logger from config. The returned file is nil when the file
// sink is disabled; the caller closes it.
func New(config Config) (*zap.Logger, *RotatingFile, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(config.Level))
	var cores []zapcore.Core
	var file *RotatingFile

	if config.FilePath != "" {
		var err error
		file, err = OpenRotatingFile(config)
		if err != nil {
			return nil, nil, err
		}
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), file, level))
	}

	if config.Console {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil, nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), file, nil
}

// Init replaces the process logger
func Init(config Config) error {
	l, file, err := New(config)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if sink != nil {
		_ = global.Sync()
		sink.Close()
	}
	global, sink = l, file
	zap.ReplaceGlobals(l)
	return nil
}

// L returns the process logger. It is a no-op logger until Init succeeds.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return global
}

// Close flushes and closes the process logger
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	_ = global.Sync()
	global = zap.NewNop()
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}
