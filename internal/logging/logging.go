// internal/logging/logging.go
// Package logging wires the process-wide zerolog logger used by the gallery.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	logFile *os.File
	logger  = zerolog.New(io.Discard)
)

// Init routes log output to stderr and, when logPath is set, to an appended JSON log file.
// Request payloads are only emitted when debug is true.
func Init(logPath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return nil
}

// SetOutput replaces the logger with one writing JSON lines to w. Used by tests and the
// web surface when it runs embedded.
func SetOutput(w io.Writer, level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(io.Discard)
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Logger returns the current process logger.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func LogEvent(format string, args ...any) {
	Logger().Info().Msg(fmt.Sprintf(format, args...))
}

// LogWarn records a degraded operation that was not surfaced to the caller.
func LogWarn(err error, format string, args ...any) {
	Logger().Warn().Err(err).Msg(fmt.Sprintf(format, args...))
}

// LogRequest records one host exchange at debug level.
func LogRequest(direction, host, model, tool string, payload any) {
	l := Logger()
	if l.GetLevel() > zerolog.DebugLevel {
		return
	}
	f := buildRequestFields(direction, host, model, tool)
	ev := l.Debug().Str("direction", f.direction).Str("host", f.host).Str("model", f.model)
	if f.tool != "" {
		ev = ev.Str("tool", f.tool)
	}
	ev.Str("payload", formatPayload(payload)).Msg("host exchange")
}

type requestFields struct {
	direction, host, model, tool string
}

func buildRequestFields(direction, host, model, tool string) requestFields {
	f := requestFields{
		direction: strings.ToUpper(strings.TrimSpace(direction)),
		host:      strings.TrimSpace(host),
		model:     strings.TrimSpace(model),
		tool:      strings.TrimSpace(tool),
	}
	if f.host == "" {
		f.host = "unknown"
	}
	if f.model == "" {
		f.model = "unknown"
	}
	return f
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return strings.TrimSpace(string(v))
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
