package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var (
	mu           sync.RWMutex
	root         hclog.Logger
	currentLevel LogLevel
)

func init() {
	Configure(os.Getenv("ASSETSCHEME_LOG_LEVEL"), os.Stdout)
}

// Configure replaces the root logger, writing to w at the named level.
// Unknown or empty level names fall back to DEBUG.
func Configure(level string, w io.Writer) {
	lvl := parseLevel(level)

	mu.Lock()
	defer mu.Unlock()
	currentLevel = lvl
	root = hclog.New(&hclog.LoggerOptions{
		Name:   "assetscheme",
		Output: w,
		Level:  toHclogLevel(lvl),
	})
}

func parseLevel(lvl string) LogLevel {
	switch strings.ToUpper(lvl) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return DEBUG
	}
}

func toHclogLevel(lvl LogLevel) hclog.Level {
	switch lvl {
	case TRACE:
		return hclog.Trace
	case INFO:
		return hclog.Info
	case WARN:
		return hclog.Warn
	case ERROR:
		return hclog.Error
	default:
		return hclog.Debug
	}
}

func current() hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Named returns a sub-logger for components that want structured key/value output.
func Named(name string) hclog.Logger {
	return current().Named(name)
}

// Level check functions
func IsTraceEnabled() bool {
	return GetCurrentLevel() <= TRACE
}

func IsDebugEnabled() bool {
	return GetCurrentLevel() <= DEBUG
}

func IsInfoEnabled() bool {
	return GetCurrentLevel() <= INFO
}

func IsWarnEnabled() bool {
	return GetCurrentLevel() <= WARN
}

func IsErrorEnabled() bool {
	return GetCurrentLevel() <= ERROR
}

// Trace level logging
func Tracef(format string, v ...interface{}) {
	if IsTraceEnabled() {
		current().Trace(fmt.Sprintf(format, v...))
	}
}

func Traceln(msg string) {
	if IsTraceEnabled() {
		current().Trace(msg)
	}
}

// Debug level logging
func Debugf(format string, v ...interface{}) {
	if IsDebugEnabled() {
		current().Debug(fmt.Sprintf(format, v...))
	}
}

func Debugln(msg string) {
	if IsDebugEnabled() {
		current().Debug(msg)
	}
}

// Info level logging
func Infof(format string, v ...interface{}) {
	if IsInfoEnabled() {
		current().Info(fmt.Sprintf(format, v...))
	}
}

func Infoln(msg string) {
	if IsInfoEnabled() {
		current().Info(msg)
	}
}

// Warn level logging
func Warnf(format string, v ...interface{}) {
	if IsWarnEnabled() {
		current().Warn(fmt.Sprintf(format, v...))
	}
}

func Warnln(msg string) {
	if IsWarnEnabled() {
		current().Warn(msg)
	}
}

// Error level logging
func Errorf(format string, v ...interface{}) {
	if IsErrorEnabled() {
		current().Error(fmt.Sprintf(format, v...))
	}
}

func Errorln(msg string) {
	if IsErrorEnabled() {
		current().Error(msg)
	}
}

// GetCurrentLevel returns the current log level
func GetCurrentLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}
