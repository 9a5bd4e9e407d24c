package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLoggerDisabledIsNop(t *testing.T) {
	t.Setenv("EMS_DEBUG", "")
	logger, done := Logger()
	defer done()

	if Enabled() {
		t.Fatal("expected debug to be disabled")
	}
	// Nop logger must accept writes without side effects.
	logger.Debug("ignored")
}

func TestFileLoggerWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	logger, done := FileLogger(path)
	logger.Debug("tree rebased", zap.String("base", "node-1"))
	done()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "tree rebased") {
		t.Errorf("log file missing message, got: %q", string(data))
	}
}

func TestLogFileEnvOverride(t *testing.T) {
	t.Setenv("EMS_DEBUG_FILE", "/tmp/custom.log")
	if got := LogFile(); got != "/tmp/custom.log" {
		t.Errorf("LogFile() = %q, want /tmp/custom.log", got)
	}

	t.Setenv("EMS_DEBUG_FILE", "")
	if got := LogFile(); got != DefaultLogFile {
		t.Errorf("LogFile() = %q, want default", got)
	}
}
