package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrDuplicateFileSink reports a second live file sink on an already claimed path.
// Two independent handles on one file interleave partial writes; share one
// *FileSink between loggers instead.
var ErrDuplicateFileSink = errors.New("log: duplicate file sink")

// openPaths tracks live file sinks by absolute path
var openPaths = struct {
	sync.Mutex
	claims map[string]int
}{claims: make(map[string]int)}

// FileSinkOptions controls rotation of a file sink
type FileSinkOptions struct {
	MaxSizeMB  int  // Rotate after this size, 0 uses the lumberjack default (100)
	MaxBackups int  // Rotated files to keep, 0 keeps all
	MaxAgeDays int  // Days to keep rotated files, 0 keeps all
	Compress   bool // Gzip rotated files
}

// FileSink appends lines to one file.
// Writes are serialized by a private mutex so the sink can be shared.
type FileSink struct {
	mu     sync.Mutex
	path   string
	out    *lumberjack.Logger
	closed bool
}

// NewFileSink opens path for appending, creating parent directories as needed.
// When another live file sink already targets path, the new sink is still
// returned and usable, together with an error matching ErrDuplicateFileSink.
func NewFileSink(path string, opts ...FileSinkOptions) (*FileSink, error) {
	var o FileSinkOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmtErrorf("failed to resolve log file path '%s': %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmtErrorf("failed to create log directory '%s': %w", filepath.Dir(absPath), err)
	}

	// Open once up front to surface permission problems at construction
	f, err := os.OpenFile(absPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmtErrorf("failed to open/create log file '%s': %w", absPath, err)
	}
	_ = f.Close()

	s := &FileSink{
		path: absPath,
		out: &lumberjack.Logger{
			Filename:   absPath,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAgeDays,
			Compress:   o.Compress,
		},
	}

	openPaths.Lock()
	openPaths.claims[absPath]++
	dup := openPaths.claims[absPath] > 1
	openPaths.Unlock()

	if dup {
		return s, fmt.Errorf("%w: '%s' is already open by another file sink", ErrDuplicateFileSink, absPath)
	}
	return s, nil
}

// Write appends one line to the file
func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSinkClosed
	}
	return s.out.Write(p)
}

// Rotate closes the current file, archives it and opens a fresh one
func (s *FileSink) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	return s.out.Rotate()
}

// Path returns the absolute file path
func (s *FileSink) Path() string {
	return s.path
}

// Close releases the file handle and the path claim. Safe to call twice.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	openPaths.Lock()
	if openPaths.claims[s.path]--; openPaths.claims[s.path] <= 0 {
		delete(openPaths.claims, s.path)
	}
	openPaths.Unlock()

	if err := s.out.Close(); err != nil {
		return fmtErrorf("failed to close log file '%s': %w", s.path, err)
	}
	return nil
}
