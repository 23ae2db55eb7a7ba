package tempo

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	globalLogger     zerolog.Logger
	globalLoggerOnce sync.Once
	globalLoggerMu   sync.RWMutex
)

func initGlobalLogger() {
	globalLoggerOnce.Do(func() {
		config := GetGlobalConfig()
		globalLogger = NewLogger(os.Stderr, config.LogLevel)
	})
}

// NewLogger builds a zerolog logger writing to w at the named level.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = io.Discard
	}
	return zerolog.New(w).Level(parseLogLevel(level)).With().Timestamp().Logger()
}

func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// SetLogger replaces the package logger.
func SetLogger(logger zerolog.Logger) {
	initGlobalLogger()
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = logger
}

// GetLogger returns the package logger.
func GetLogger() zerolog.Logger {
	initGlobalLogger()
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// componentLogger returns the package logger tagged with a component name.
func componentLogger(name string) zerolog.Logger {
	return GetLogger().With().Str("component", name).Logger()
}

// UpdateLoggerFromConfig re-levels the package logger from the global configuration
func UpdateLoggerFromConfig() {
	config := GetGlobalConfig()
	logger := GetLogger()
	SetLogger(logger.Level(parseLogLevel(config.LogLevel)))
}
