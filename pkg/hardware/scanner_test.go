package hardware

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestLineScanner_ReadsCodes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed")

	content := "WB-0001\n\n  WB-0002\r\nWB-0003\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := OpenLineScanner(context.Background(), path, nil)
	defer s.Close()

	want := []string{"WB-0001", "WB-0002", "WB-0003"}
	for _, c := range want {
		select {
		case got, ok := <-s.Codes():
			if !ok {
				t.Fatalf("feed closed early, still waiting for %q", c)
			}
			if got != c {
				t.Errorf("code = %q, want %q", got, c)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", c)
		}
	}

	// EOF closes the channel.
	select {
	case _, ok := <-s.Codes():
		if ok {
			t.Error("expected channel closed at end of feed")
		}
	case <-time.After(2 * time.Second):
		t.Error("channel not closed after EOF")
	}
}

func TestLineScanner_MissingDevice(t *testing.T) {
	s := OpenLineScanner(context.Background(), "/nonexistent/device", nil)
	defer s.Close()

	select {
	case _, ok := <-s.Codes():
		if ok {
			t.Error("expected no codes from a missing device")
		}
	case <-time.After(2 * time.Second):
		t.Error("channel not closed for missing device")
	}
}

func TestLineScanner_CancelStopsReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed")
	if err := os.WriteFile(path, []byte("WB-1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := OpenLineScanner(ctx, path, nil)
	cancel()

	doneCh := make(chan struct{})
	go func() {
		s.Close()
		close(doneCh)
	}()
	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after cancel")
	}
}

func TestLineScanner_CloseWithWriterlessFIFO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fifo")
	if err := syscall.Mkfifo(path, 0o600); err != nil {
		t.Fatal(err)
	}

	s := OpenLineScanner(context.Background(), path, nil)

	// No writer ever attaches; shutdown must still complete.
	doneCh := make(chan struct{})
	go func() {
		s.Close()
		close(doneCh)
	}()
	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return while the FIFO had no writer")
	}
}

func TestLineScanner_FIFOSurvivesWriterReattach(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fifo")
	if err := syscall.Mkfifo(path, 0o600); err != nil {
		t.Fatal(err)
	}

	s := OpenLineScanner(context.Background(), path, nil)
	defer s.Close()

	feed := func(code string) {
		t.Helper()
		w, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.WriteString(code + "\n"); err != nil {
			t.Fatal(err)
		}
		w.Close()
	}
	expect := func(code string) {
		t.Helper()
		select {
		case got, ok := <-s.Codes():
			if !ok {
				t.Fatalf("feed closed, still waiting for %q", code)
			}
			if got != code {
				t.Errorf("code = %q, want %q", got, code)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", code)
		}
	}

	// Two separate writer sessions: the reader keeps the feed alive
	// across the EOF in between.
	feed("WB-0101")
	expect("WB-0101")
	feed("WB-0102")
	expect("WB-0102")
}

func TestFakeScanner(t *testing.T) {
	f := NewFakeScanner()
	f.Scan("WB-42")

	select {
	case got := <-f.Codes():
		if got != "WB-42" {
			t.Errorf("code = %q, want WB-42", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no code delivered")
	}

	f.Close()
	if _, ok := <-f.Codes(); ok {
		t.Error("expected closed channel")
	}
}
