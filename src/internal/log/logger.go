package log

import (
	"io"
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	mu          sync.RWMutex
	verbose     = false
	disableLogs = false
	forceStdErr = false

	stdLogger = newLogger(os.Stdout)
	errLogger = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.InfoLevel,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
}

// SetVerbose sets the logging verbosity. If true, debug messages are displayed.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()

	verbose = v
	level := charmlog.InfoLevel
	if v {
		level = charmlog.DebugLevel
	}
	stdLogger.SetLevel(level)
	errLogger.SetLevel(level)
}

// IsVerbose returns true if verbose logging is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// DisableLogs disables all logging.
func DisableLogs() {
	mu.Lock()
	defer mu.Unlock()
	disableLogs = true
}

// IsDisabled returns true if logging is disabled.
func IsDisabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return disableLogs
}

// SetForceStdErr sends every level to stderr. Used by commands whose stdout
// carries the generated block.
func SetForceStdErr(v bool) {
	mu.Lock()
	defer mu.Unlock()
	forceStdErr = v
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdLogger.SetOutput(w)
	errLogger.SetOutput(w)
}

// Debugf logs a debug message if verbose is true.
func Debugf(format string, args ...interface{}) {
	if l := pick(charmlog.DebugLevel); l != nil {
		l.Debugf(format, args...)
	}
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	if l := pick(charmlog.InfoLevel); l != nil {
		l.Infof(format, args...)
	}
}

// Warnf logs a warning message.
func Warnf(format string, args ...interface{}) {
	if l := pick(charmlog.WarnLevel); l != nil {
		l.Warnf(format, args...)
	}
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	if l := pick(charmlog.ErrorLevel); l != nil {
		l.Errorf(format, args...)
	}
}

// Fatalf logs an error message and exits the program.
func Fatalf(format string, args ...interface{}) {
	errLogger.Errorf(format, args...)
	os.Exit(1)
}

// pick returns the logger for the level, or nil when logging is disabled.
func pick(level charmlog.Level) *charmlog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if disableLogs {
		return nil
	}
	if forceStdErr || level >= charmlog.ErrorLevel {
		return errLogger
	}
	return stdLogger
}
