package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type point struct {
	X, Y int
}

// TestFormatArgs covers the value conversions used for messages
func TestFormatArgs(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		args []any
		want string
	}{
		{"empty", nil, ""},
		{"single string", []any{"hello"}, "hello"},
		{"mixed", []any{"port", 8000, "ok", true}, "port 8000 ok true"},
		{"float", []any{1.5}, "1.5"},
		{"nil", []any{nil}, "nil"},
		{"error", []any{errors.New("boom")}, "boom"},
		{"duration", []any{1500 * time.Millisecond}, "1.5s"},
		{"time", []any{ts}, "2024-03-01T12:00:00Z"},
		{"bytes", []any{[]byte{0xde, 0xad}}, "dead"},
		{"struct", []any{point{1, 2}}, "{X:1 Y:2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatArgs(tt.args))
		})
	}
}

// TestAppendEscaped verifies control characters cannot split a line
func TestAppendEscaped(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"a\nb", `a\nb`},
		{"a\r\nb", `a\r\nb`},
		{"tab\there", `tab\there`},
		{"bell\x07", `bell\u0007`},
		{"del\x7f", `del\u007f`},
		{"bad\xffutf8", `bad\xffutf8`},
		{"ünïcode", "ünïcode"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(appendEscaped(nil, tt.in)), "input %q", tt.in)
	}
}

// TestRecordRendering checks that injected newlines stay on one line
func TestRecordRendering(t *testing.T) {
	r := Record{
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Logger:  "web",
		Level:   LevelInfo,
		Tag:     "access",
		Message: "GET /\n[fake] - [entry]",
	}

	line := string(r.AppendLine(nil, time.RFC3339))
	assert.Equal(t, "[2024-01-02T03:04:05Z] - [web] - [access] - GET /\\n[fake] - [entry]\n", line)
	assert.Equal(t, "[Tue Jan  2 03:04:05 2024] - [web] - [access] - GET /\\n[fake] - [entry]", r.String())
}

// TestLevelToString covers known and unknown levels
func TestLevelToString(t *testing.T) {
	assert.Equal(t, "WARN", levelToString(LevelWarn))
	assert.Equal(t, "PROC", levelToString(LevelProc))
	assert.Equal(t, "LEVEL(3)", levelToString(3))
}
