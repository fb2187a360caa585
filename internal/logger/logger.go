// Package logger provides structured logging for the OceanAI CLI.
// Warnings and errors are always written; when verbose mode is enabled via
// the --verbose flag, debug and info messages are printed as well to help
// users follow the ingestion and retrieval pipeline.
//
// Calls take a message followed by alternating key-value pairs:
//
//	logger.Warn("rejected file", "file", name, "reason", reason)
package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	level             = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	sugar             = build(os.Stderr)
)

// build creates a console logger writing to w at the shared level.
func build(w io.Writer) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.CallerKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)
	return zap.New(core).Sugar()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.WarnLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
	output = w
	sugar = build(w)
}

// L returns the underlying zap logger for callers that need fields or levels
// beyond the helpers below.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Debug logs a message if verbose mode is enabled.
func Debug(msg string, keysAndValues ...any) {
	L().Debugw(msg, keysAndValues...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		_, _ = io.WriteString(output, "\n=== "+name+" ===\n")
	}
}

// Info logs an informational message if verbose mode is enabled.
func Info(msg string, keysAndValues ...any) {
	L().Infow(msg, keysAndValues...)
}

// Warn logs a warning.
func Warn(msg string, keysAndValues ...any) {
	L().Warnw(msg, keysAndValues...)
}

// Error logs an error.
func Error(msg string, keysAndValues ...any) {
	L().Errorw(msg, keysAndValues...)
}

// Sync flushes buffered log entries.
func Sync() error {
	return L().Sync()
}
