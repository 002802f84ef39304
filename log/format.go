package log

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
)

const hexChars = "0123456789abcdef"

// dumper renders composite values (structs, maps, slices, pointers) inline
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true, // Cleaner for logs
	DisableCapacities:       true, // Less noise
	SortKeys:                true, // Consistent map output
}

// formatArgs joins args as space-separated values
func formatArgs(args []any) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		if s, ok := args[0].(string); ok {
			return s
		}
	}

	buf := make([]byte, 0, 64)
	for i, arg := range args {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = appendValue(buf, arg)
	}
	return string(buf)
}

// appendValue converts any value to its text representation.
// Types without a direct representation are delegated to spew.
func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case string:
		return append(buf, val...)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int32:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case float32:
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(buf, val)
	case nil:
		return append(buf, "nil"...)
	case time.Time:
		return val.AppendFormat(buf, time.RFC3339Nano)
	case time.Duration:
		return append(buf, val.String()...)
	case error:
		return append(buf, val.Error()...)
	case fmt.Stringer:
		return append(buf, val.String()...)
	case []byte:
		return hex.AppendEncode(buf, val) // prevent special character corruption
	default:
		return append(buf, dumper.Sprintf("%+v", val)...)
	}
}

// appendEscaped appends str, escaping control characters and invalid UTF-8
// so that the result is a single printable line.
func appendEscaped(buf []byte, str string) []byte {
	for i := 0; i < len(str); {
		c := str[i]
		if c >= ' ' && c != 0x7f && c < utf8.RuneSelf {
			start := i
			for i < len(str) && str[i] >= ' ' && str[i] != 0x7f && str[i] < utf8.RuneSelf {
				i++
			}
			buf = append(buf, str[start:i]...)
			continue
		}

		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(str[i:])
			if r == utf8.RuneError && size == 1 {
				buf = append(buf, `\x`...)
				buf = append(buf, hexChars[c>>4], hexChars[c&0xF])
			} else {
				buf = append(buf, str[i:i+size]...)
			}
			i += size
			continue
		}

		switch c {
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			buf = append(buf, `\u00`...)
			buf = append(buf, hexChars[c>>4], hexChars[c&0xF])
		}
		i++
	}
	return buf
}

// levelToString returns the canonical name of a level
func levelToString(level int64) string {
	switch level {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelProc:
		return "PROC"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}
