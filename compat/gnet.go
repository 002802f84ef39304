package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/lixenwraith/ccerve/log"
)

// TagGnet tags records coming from gnet
const TagGnet = "gnet"

// fatalFlushTimeout bounds the wait for queued records before the fatal handler runs
const fatalFlushTimeout = 100 * time.Millisecond

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter implements gnet's logging.Logger on top of a ccerve logger
type GnetAdapter struct {
	emitter
	onFatal func(msg string)
}

// GnetOption configures a GnetAdapter
type GnetOption func(*GnetAdapter)

// WithFatalHandler replaces the default os.Exit(1) run by Fatalf
func WithFatalHandler(fn func(msg string)) GnetOption {
	return func(a *GnetAdapter) { a.onFatal = fn }
}

// NewGnetAdapter wraps logger for gnet. Fatalf exits the process unless
// WithFatalHandler is given.
func NewGnetAdapter(logger *log.Logger, opts ...GnetOption) *GnetAdapter {
	a := &GnetAdapter{
		emitter: emitter{logger: logger, tag: TagGnet},
		onFatal: func(string) { os.Exit(1) },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *GnetAdapter) Debugf(format string, args ...any) { a.emitf(log.LevelDebug, format, args...) }
func (a *GnetAdapter) Infof(format string, args ...any)  { a.emitf(log.LevelInfo, format, args...) }
func (a *GnetAdapter) Warnf(format string, args ...any)  { a.emitf(log.LevelWarn, format, args...) }
func (a *GnetAdapter) Errorf(format string, args ...any) { a.emitf(log.LevelError, format, args...) }

// Fatalf records the message at error level, gives the drain a short window
// to write it, then calls the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.logger.Log(log.LevelError, a.tag, "fatal:", msg)
	_ = a.logger.Flush(fatalFlushTimeout)
	if a.onFatal != nil {
		a.onFatal(msg)
	}
}
