// Package hardware abstracts the wristband scanner feed. Scanners in
// the field present as line-oriented devices (serial tty in keyboard
// emulation bridged to a FIFO, or a plain file in drills), so the
// reader is a line reader.
package hardware

import (
	"bufio"
	"context"
	"os"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Scanner delivers scanned codes. Codes arrives on Codes until the
// scanner is closed or its context ends; the channel is closed on
// shutdown.
type Scanner interface {
	Codes() <-chan string
	Close() error
}

// LineScanner reads newline-delimited codes from a device or FIFO.
type LineScanner struct {
	path   string
	log    *zap.Logger
	codes  chan string
	cancel context.CancelFunc
	done   chan struct{}
}

// OpenLineScanner starts reading codes from path. Blank lines are
// skipped, surrounding whitespace is stripped (keyboard-wedge scanners
// append CR). A FIFO with no writer yet delivers codes once the wedge
// bridge attaches; it never blocks the open or the shutdown.
func OpenLineScanner(ctx context.Context, path string, log *zap.Logger) *LineScanner {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &LineScanner{
		path:   path,
		log:    log,
		codes:  make(chan string),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Codes returns the scanned-code channel.
func (s *LineScanner) Codes() <-chan string { return s.codes }

// Close stops the reader and waits for the channel to close.
func (s *LineScanner) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *LineScanner) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.codes)

	fifo := false
	if fi, err := os.Stat(s.path); err == nil {
		fifo = fi.Mode()&os.ModeNamedPipe != 0
	}

	for {
		again := s.readDevice(ctx)
		if !again || !fifo || ctx.Err() != nil {
			return
		}
		// Clean EOF on a FIFO: the wedge bridge detached (or has not
		// attached yet). Wait for it to come back.
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}
}

// readDevice opens the device and delivers codes until EOF or error.
// Reports whether the stream ended cleanly, a candidate for reattach on
// a FIFO. O_NONBLOCK keeps a writerless FIFO from blocking the open;
// the runtime poller still gives blocking reads, which Close interrupts
// by closing the file.
func (s *LineScanner) readDevice(ctx context.Context) bool {
	f, err := os.OpenFile(s.path, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("opening scanner device", zap.String("path", s.path), zap.Error(err))
		}
		return false
	}
	defer f.Close()

	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-ctx.Done():
			f.Close()
		case <-readDone:
		}
	}()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		code := strings.TrimSpace(sc.Text())
		if code == "" {
			continue
		}
		select {
		case s.codes <- code:
		case <-ctx.Done():
			return false
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		s.log.Warn("scanner read failed", zap.String("path", s.path), zap.Error(err))
		return false
	}
	return true
}

// FakeScanner is a channel-backed Scanner for tests and demos.
type FakeScanner struct {
	ch chan string
}

// NewFakeScanner returns a fake with a buffered feed.
func NewFakeScanner() *FakeScanner {
	return &FakeScanner{ch: make(chan string, 16)}
}

// Scan queues a code as if the device had read it.
func (f *FakeScanner) Scan(code string) { f.ch <- code }

// Codes returns the scanned-code channel.
func (f *FakeScanner) Codes() <-chan string { return f.ch }

// Close closes the feed.
func (f *FakeScanner) Close() error {
	close(f.ch)
	return nil
}

var (
	_ Scanner = (*LineScanner)(nil)
	_ Scanner = (*FakeScanner)(nil)
)
