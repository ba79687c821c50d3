// Package logging configures log/slog for the services in this module.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Constants for log levels that match slog.Level values.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// LoggerNameKey is the attribute key carrying the logger name.
const LoggerNameKey = "logger"

// Type aliases for commonly used slog types.
type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

//nolint:gochecknoglobals
var logLevelStrToLevel = map[string]Level{
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is added to all log entries
	AppName string

	// Output is "stdout", "stderr", "discard" or a file path
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is the minimum level ("debug", "info", "warn", "error")
	Level string `env:"LEVEL" default:"info"`

	// Filter overrides levels per logger name ("repo:debug,svc.sessionsvc:warn")
	Filter string `env:"FILTER" default:""`

	// JSON switches from console to JSON output
	JSON bool `env:"JSON" default:"false"`

	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group = slog.Group

	config     LoggerConfig
	configLock sync.Mutex
)

// Configure sets up global logging configuration for the application.
// Loggers created before Configure write nowhere.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	configure(cfg, appName)

	GetLogger("infra.logging").With(Group("config",
		"appName", appName,
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
	)).DebugContext(ctx, "logging configured")
}

func configure(cfg LoggerConfig, appName string) {
	configLock.Lock()
	defer configLock.Unlock()

	config = cfg
	config.AppName = appName

	if cfg.OutputHandle != nil {
		return
	}

	switch cfg.Output {
	case "", "discard":
		config.OutputHandle = io.Discard
	case "stdout":
		config.OutputHandle = os.Stdout
	case "stderr":
		config.OutputHandle = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			panic(fmt.Errorf("open log file: %w", err))
		}

		config.OutputHandle = file
	}
}

// GetLogLogger adapts logger for code that expects a *log.Logger, such as http.Server.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// GetLogger returns a logger tagged with name using the global configuration.
func GetLogger(name string) Logger {
	cfg := snapshot()

	if cfg.OutputHandle == nil || cfg.OutputHandle == io.Discard {
		return NewNopLogger()
	}

	level := parseLogLevel(cfg.Level, LevelInfo)

	var handler Handler

	if cfg.JSON {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(cfg.OutputHandle, &slog.HandlerOptions{
			AddSource: true,
			Level:     LevelDebug,
		})
	} else {
		handler = NewConsoleHandler(cfg.OutputHandle)
	}

	handler = NewFilterHandler(handler, level, cfg.pkgLevels())
	handler = NewTracingHandler(handler)

	logger := slog.New(handler)

	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}

	return logger.With(LoggerNameKey, name)
}

func snapshot() LoggerConfig {
	configLock.Lock()
	defer configLock.Unlock()

	return config
}

func (cfg LoggerConfig) pkgLevels() map[string]Level {
	levels := make(map[string]Level)

	for _, pkgLevel := range strings.Split(cfg.Filter, ",") {
		name, level, ok := strings.Cut(strings.TrimSpace(pkgLevel), ":")
		if !ok {
			continue
		}

		levels[name] = parseLogLevel(level, LevelDebug)
	}

	return levels
}

func parseLogLevel(levelStr string, fallback Level) Level {
	level, ok := logLevelStrToLevel[strings.ToLower(strings.TrimSpace(levelStr))]
	if !ok {
		return fallback
	}

	return level
}
