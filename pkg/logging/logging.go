package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// Rotation defaults.
const (
	DefaultMaxLogFiles = 8
	DefaultMaxSizeKB   = 10 * 1024
)

// LogConfig configures a LogBackend.
type LogConfig struct {
	// LogFile is the rotated log file. Empty logs to stdout only.
	LogFile string
	// DebugLevel is one of trace, debug, info, warn, error, critical, off.
	DebugLevel  string
	MaxLogFiles int
	MaxSizeKB   int64
}

// LogBackend hands out subsystem loggers that write to stdout and, when
// configured, a rotating log file. The zero value hands out disabled loggers.
type LogBackend struct {
	backend *slog.Backend
	rotator *rotator.Rotator
	level   slog.Level

	mu      sync.Mutex
	loggers map[string]slog.Logger
}

// NewLogBackend creates the backend described by cfg.
func NewLogBackend(cfg LogConfig) (*LogBackend, error) {
	level := slog.LevelInfo
	if cfg.DebugLevel != "" {
		l, ok := slog.LevelFromString(cfg.DebugLevel)
		if !ok {
			return nil, fmt.Errorf("invalid debug level %q", cfg.DebugLevel)
		}
		level = l
	}

	lb := &LogBackend{
		level:   level,
		loggers: make(map[string]slog.Logger),
	}

	var w io.Writer = os.Stdout
	if cfg.LogFile != "" {
		if cfg.MaxLogFiles <= 0 {
			cfg.MaxLogFiles = DefaultMaxLogFiles
		}
		if cfg.MaxSizeKB <= 0 {
			cfg.MaxSizeKB = DefaultMaxSizeKB
		}
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		r, err := rotator.New(cfg.LogFile, cfg.MaxSizeKB, false, cfg.MaxLogFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to create file rotator: %w", err)
		}
		lb.rotator = r
		w = io.MultiWriter(os.Stdout, r)
	}
	lb.backend = slog.NewBackend(w)
	return lb, nil
}

// Logger returns the logger for subsystem, creating it on first use.
func (lb *LogBackend) Logger(subsystem string) slog.Logger {
	if lb == nil || lb.backend == nil {
		return slog.Disabled
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if l, ok := lb.loggers[subsystem]; ok {
		return l
	}
	l := lb.backend.Logger(subsystem)
	l.SetLevel(lb.level)
	lb.loggers[subsystem] = l
	return l
}

// SetLevel changes the level of every logger handed out so far and of those
// created later.
func (lb *LogBackend) SetLevel(level string) error {
	l, ok := slog.LevelFromString(level)
	if !ok {
		return fmt.Errorf("invalid debug level %q", level)
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.level = l
	for _, logger := range lb.loggers {
		logger.SetLevel(l)
	}
	return nil
}

// Close flushes and closes the log file, if any.
func (lb *LogBackend) Close() error {
	if lb == nil || lb.rotator == nil {
		return nil
	}
	return lb.rotator.Close()
}
