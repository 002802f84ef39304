package server

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal startup errors
var (
	ErrListenerCreate = errors.New("server: listener creation failed")
	ErrListenerBind   = errors.New("server: listener bind failed")
)

// Queue and lifecycle errors
var (
	ErrQueueClosed     = errors.New("server: connection queue closed")
	ErrQueueFull       = errors.New("server: connection queue full")
	ErrServerClosed    = errors.New("server: closed")
	ErrRequestTooLarge = errors.New("server: request exceeds size limit")
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "server: ") {
		format = "server: " + format
	}
	return fmt.Errorf(format, args...)
}
