package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger is the leveled logger shared by the engine packages.
type Logger interface {
	// DebugEnabled reports whether Debugf output is written.
	//
	// Returns:
	//   - bool: true when debug logging is enabled
	DebugEnabled() bool

	// SetDebug enables or disables Debugf output.
	//
	// Parameters:
	//   - enabled: whether debug messages should be written
	SetDebug(enabled bool)

	// Debugf logs a debug message. Dropped unless debug logging is enabled.
	Debugf(format string, args ...any)

	// Infof logs an informational message.
	Infof(format string, args ...any)

	// Warnf logs a warning.
	Warnf(format string, args ...any)

	// Errorf logs an error.
	Errorf(format string, args ...any)
}

type defaultLogger struct {
	mu     sync.Mutex
	debug  bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

var _ Logger = &defaultLogger{}

// NewDefaultLogger creates a Logger writing info/debug messages to stdout and warnings/errors to stderr.
// Messages are formatted as "[prefix] LEVEL: message".
//
// Parameters:
//   - prefix: the bracketed tag written before each message, omitted when empty
//   - debug: whether Debugf output is enabled
//
// Returns:
//   - Logger: the logger
func NewDefaultLogger(prefix string, debug bool) Logger {
	return NewWriterLogger(prefix, debug, os.Stdout, os.Stderr)
}

// NewWriterLogger creates a Logger like NewDefaultLogger but writing to the given writers.
//
// Parameters:
//   - prefix: the bracketed tag written before each message, omitted when empty
//   - debug: whether Debugf output is enabled
//   - out: destination for debug and info messages
//   - errOut: destination for warnings and errors
//
// Returns:
//   - Logger: the logger
func NewWriterLogger(prefix string, debug bool, out, errOut io.Writer) Logger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &defaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
}

func (l *defaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *defaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *defaultLogger) prefixf(level string, format string, args ...any) string {
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, fmt.Sprintf(format, args...))
	}
	return fmt.Sprintf("%s: %s", level, fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Print(l.prefixf("DEBUG", format, args...))
}

func (l *defaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.prefixf("INFO", format, args...))
}

func (l *defaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.prefixf("WARN", format, args...))
}

func (l *defaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.prefixf("ERROR", format, args...))
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool                { return false }
func (nopLogger) SetDebug(enabled bool)             {}
func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Infof(format string, args ...any)  {}
func (nopLogger) Warnf(format string, args ...any)  {}
func (nopLogger) Errorf(format string, args ...any) {}
