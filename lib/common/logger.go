package common

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// skvLogger implements the ILogger interface on top of a slog handler
type skvLogger struct {
	name  string
	level logger.LogLevel
	sink  *slog.Logger
}

func (l *skvLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *skvLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log(slog.LevelDebug, format, args...)
	}
}

func (l *skvLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log(slog.LevelInfo, format, args...)
	}
}

func (l *skvLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log(slog.LevelWarn, format, args...)
	}
}

func (l *skvLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log(slog.LevelError, format, args...)
	}
}

func (l *skvLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// log formats and writes a log message. this internal helper is used by the public methods
func (l *skvLogger) log(level slog.Level, format string, args ...interface{}) {
	l.sink.Log(context.Background(), level, fmt.Sprintf(format, args...), "pkg", l.name)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// newSink creates the colored console handler all loggers write to.
// Colors are disabled when stderr is not a terminal.
func newSink() *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		// filtering happens in skvLogger, the handler passes everything
		Level:      slog.LevelDebug,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
}

// CreateLogger implements the dragonboat logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &skvLogger{
		name:  pkgName,
		level: logger.INFO,
		sink:  newSink(),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, errors.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// LoggerNames are the loggers used across sKV
var LoggerNames = []string{"store", "schema", "sweep", "cmd"}

// InitLoggers installs the custom logger factory and sets the level of all sKV loggers
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	// Set as the global logger factory
	logger.SetLoggerFactory(CreateLogger)

	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
