package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/ccerve/log"
)

// TagFastHTTP tags records coming from fasthttp
const TagFastHTTP = "fasthttp"

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// levelKeywords is checked in order, first hit wins
var levelKeywords = []struct {
	level    int64
	keywords []string
}{
	{log.LevelError, []string{"error", "failed", "fatal", "panic"}},
	{log.LevelWarn, []string{"warn", "deprecated"}},
	{log.LevelDebug, []string{"debug", "trace"}},
}

// FastHTTPAdapter implements fasthttp.Logger. fasthttp has no levels, so a
// level is inferred from each message.
type FastHTTPAdapter struct {
	emitter
	fallback int64
	detect   func(msg string) int64
}

// FastHTTPOption configures a FastHTTPAdapter
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when detection reports info
func WithDefaultLevel(level int64) FastHTTPOption {
	return func(a *FastHTTPAdapter) { a.fallback = level }
}

// WithLevelDetector replaces DetectLogLevel
func WithLevelDetector(fn func(msg string) int64) FastHTTPOption {
	return func(a *FastHTTPAdapter) { a.detect = fn }
}

// NewFastHTTPAdapter wraps logger for fasthttp, using DetectLogLevel unless
// WithLevelDetector is given
func NewFastHTTPAdapter(logger *log.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	a := &FastHTTPAdapter{
		emitter:  emitter{logger: logger, tag: TagFastHTTP},
		fallback: log.LevelInfo,
		detect:   DetectLogLevel,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Printf implements fasthttp.Logger
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	level := a.fallback
	if a.detect != nil {
		if l := a.detect(msg); l != log.LevelInfo {
			level = l
		}
	}
	a.logger.Log(level, a.tag, msg)
}

// DetectLogLevel maps message keywords to a level, defaulting to info
func DetectLogLevel(msg string) int64 {
	lower := strings.ToLower(msg)
	for _, entry := range levelKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.level
			}
		}
	}
	return log.LevelInfo
}
