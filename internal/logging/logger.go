// Package logging provides the process-wide structured logger.
//
// Init (or InitDefault) configures a single slog.Logger once at startup and
// GetLogger hands it out. The TUI points the logger at a file so log lines
// never land on the terminal it draws.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	logFile  *os.File
	isInited bool
)

// Level represents logging verbosity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Config holds logger configuration.
type Config struct {
	Level      Level
	OutputPath string // empty for stderr
	Format     string // "json" or "text"
	Writer     io.Writer
}

// Init initializes the global logger. Calling it twice without Close is an error.
func Init(cfg Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	writer := cfg.Writer
	switch {
	case writer != nil:
	case cfg.OutputPath == "":
		writer = os.Stderr
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o750); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		writer = f
		logFile = f
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	logger = slog.New(handler)
	isInited = true
	return nil
}

// InitDefault initializes an INFO text logger on stderr unless one exists.
func InitDefault() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	isInited = true
}

// Close releases the log file, if any. Init may be called again afterwards.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !isInited {
		return nil
	}

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = nil
	isInited = false
	return err
}

// GetLogger returns the global logger, initializing defaults on first use.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	if isInited {
		l := logger
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()

	InitDefault()

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func parseLevel(l Level) slog.Level {
	switch Level(strings.ToUpper(string(l))) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
