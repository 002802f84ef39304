package log

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Sink is an output destination for rendered log lines.
// Write receives exactly one complete line per call and must not retain p.
// A Sink may be shared by several loggers, in which case it must be safe for
// concurrent use.
type Sink interface {
	Write(p []byte) (n int, err error)
}

// RecordSink is implemented by sinks that render records themselves.
// The drain goroutine prefers WriteRecord over Write when available.
type RecordSink interface {
	Sink
	WriteRecord(r Record, timestampFormat string) error
}

// ErrSinkClosed is returned by writes to a closed sink
var ErrSinkClosed = errors.New("log: sink closed")

// ConsoleSink writes to stdout or stderr, coloring the tag when enabled.
// A single Write per line keeps lines from different loggers whole.
type ConsoleSink struct {
	w      io.Writer
	colors map[string]*color.Color
}

// NewConsoleSink creates a console sink for the given target ("stdout" or
// "stderr") and color mode ("auto", "always" or "never").
func NewConsoleSink(target, colorMode string) *ConsoleSink {
	f := os.Stdout
	if target == ConsoleStderr {
		f = os.Stderr
	}

	colorize := false
	switch colorMode {
	case ColorAlways:
		colorize = true
	case ColorAuto:
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return newConsoleSink(f, colorize)
}

func newConsoleSink(w io.Writer, colorize bool) *ConsoleSink {
	s := &ConsoleSink{w: w}
	if colorize {
		s.colors = map[string]*color.Color{
			TagDebug: color.New(color.FgCyan),
			TagInfo:  color.New(color.FgGreen),
			TagWarn:  color.New(color.FgYellow),
			TagError: color.New(color.FgRed),
			TagProc:  color.New(color.FgMagenta),
		}
		for _, c := range s.colors {
			c.EnableColor() // Decided above, override the global stdout check
		}
	}
	return s
}

// Write outputs a rendered line
func (s *ConsoleSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// WriteRecord renders the record with a colored tag when colors are enabled
func (s *ConsoleSink) WriteRecord(r Record, timestampFormat string) error {
	var decorate func(string) string
	if c, ok := s.colors[r.Tag]; ok {
		decorate = func(tag string) string { return c.Sprint(tag) }
	}
	_, err := s.w.Write(appendLine(make([]byte, 0, 128), r, timestampFormat, decorate))
	return err
}

// MemorySink keeps rendered lines in memory
type MemorySink struct {
	mu    sync.Mutex
	lines []string
}

// NewMemorySink creates an empty memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write stores a copy of the line
func (s *MemorySink) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.lines = append(s.lines, string(p))
	s.mu.Unlock()
	return len(p), nil
}

// Lines returns a snapshot of the stored lines
func (s *MemorySink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of stored lines
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Reset drops all stored lines
func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
}
