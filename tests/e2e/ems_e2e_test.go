package main_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

var emsBinaryPath string
var emsBinaryDir string

func TestMain(m *testing.M) {
	if err := buildEmsOnce(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build ems binary: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	if emsBinaryDir != "" {
		_ = os.RemoveAll(emsBinaryDir)
	}
	os.Exit(code)
}

// buildEmsOnce builds the binary once for all tests.
func buildEmsOnce() error {
	dir, err := os.MkdirTemp("", "ems-e2e-*")
	if err != nil {
		return err
	}
	bin := filepath.Join(dir, "ems")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}

	cmd := exec.Command("go", "build", "-o", bin, "../../cmd/ems")
	out, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("go build: %v\n%s", err, out)
	}

	emsBinaryPath = bin
	emsBinaryDir = dir
	return nil
}

// seededRegister seeds a fresh database and returns its path plus a
// config path that does not exist (so defaults apply).
func seededRegister(t *testing.T) (db, cfg string) {
	t.Helper()
	dir := t.TempDir()
	db = filepath.Join(dir, "register.db")
	cfg = filepath.Join(dir, "missing.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, emsBinaryPath, "seed",
		"--config", cfg, "--db", db, "--stations", "2", "--per-station", "3")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("seed: %v\n%s", err, out)
	}
	return db, cfg
}

func TestSeedThenSnapshot(t *testing.T) {
	db, cfg := seededRegister(t)

	svg := filepath.Join(filepath.Dir(db), "register.svg")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, emsBinaryPath, "snapshot",
		"--config", cfg, "--db", db, "--svg", svg, "--title", "E2E drill")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("snapshot: %v\n%s", err, out)
	}

	data, err := os.ReadFile(svg)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if !strings.Contains(string(data), "E2E drill") {
		t.Error("snapshot missing its title")
	}
	if !strings.Contains(string(data), "Station 1") {
		t.Error("snapshot missing seeded stations")
	}
}

// TestTUIStartsAndExits launches the TUI against a seeded register and
// lets EMS_TUI_AUTOCLOSE_MS shut it down. The script command provides
// the pty the TUI needs.
func TestTUIStartsAndExits(t *testing.T) {
	if _, err := exec.LookPath("script"); err != nil {
		t.Skip("script command not available")
	}
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("pty harness unsupported on this OS")
	}

	db, cfg := seededRegister(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	inner := fmt.Sprintf("%s --config %s --db %s", emsBinaryPath, cfg, db)
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		cmd = exec.CommandContext(ctx, "script", "-q", "/dev/null", "sh", "-c", inner)
	} else {
		cmd = exec.CommandContext(ctx, "script", "-qec", inner, "/dev/null")
	}
	cmd.Env = append(os.Environ(), "EMS_TUI_AUTOCLOSE_MS=1500", "TERM=xterm-256color")

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("TUI run: %v\n%s", err, out)
	}

	// The alt-screen dump should carry the seeded register.
	if !strings.Contains(string(out), "Evacuation") {
		t.Errorf("TUI output missing the register root:\n%s", out)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := exec.Command(emsBinaryPath, "version").CombinedOutput()
	if err != nil {
		t.Fatalf("version: %v\n%s", err, out)
	}
	if !strings.HasPrefix(string(out), "ems v") {
		t.Errorf("version output = %q", out)
	}
}
