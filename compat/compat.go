// Package compat lets third-party networking libraries log through a
// ccerve logger. Each adapter tags its records with the library name.
package compat

import (
	"fmt"

	"github.com/lixenwraith/ccerve/log"
)

// emitter is the part shared by every adapter
type emitter struct {
	logger *log.Logger
	tag    string
}

// emitf formats only when level passes the logger's filter
func (e emitter) emitf(level int64, format string, args ...any) {
	if !e.logger.Enabled(level) {
		return
	}
	e.logger.Log(level, e.tag, fmt.Sprintf(format, args...))
}
