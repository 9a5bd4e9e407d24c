// Package debug builds the diagnostic logger for ems.
//
// Debug logging is enabled by setting the EMS_DEBUG environment variable:
//
//	EMS_DEBUG=1 ems
//
// When enabled, a zap logger writes to /tmp/ems-debug.log (or the path in
// EMS_DEBUG_FILE). When disabled (default), Logger returns zap.NewNop, so
// call sites pay nothing. The log never goes to stdout/stderr: the
// terminal belongs to the TUI.
package debug

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogFile is where debug output lands unless EMS_DEBUG_FILE is set.
const DefaultLogFile = "/tmp/ems-debug.log"

// Enabled reports whether EMS_DEBUG is set.
func Enabled() bool {
	return os.Getenv("EMS_DEBUG") != ""
}

// LogFile returns the debug log path honoring EMS_DEBUG_FILE.
func LogFile() string {
	if path := os.Getenv("EMS_DEBUG_FILE"); path != "" {
		return path
	}
	return DefaultLogFile
}

// Logger returns the process logger: a file-backed zap logger when debug
// is enabled, zap.NewNop otherwise. The returned function flushes the
// sink and should be deferred by main.
func Logger() (*zap.Logger, func()) {
	if !Enabled() {
		return zap.NewNop(), func() {}
	}
	return FileLogger(LogFile())
}

// FileLogger builds a development-encoded zap logger appending to path.
// Falls back to a nop logger if the file cannot be opened; a broken debug
// sink must not take the app down.
func FileLogger(path string) (*zap.Logger, func()) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zap.NewNop(), func() {}
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(f)),
		zap.DebugLevel,
	)
	logger := zap.New(core)
	return logger, func() {
		_ = logger.Sync()
		_ = f.Close()
	}
}
