package log

import (
	"time"
)

// Record represents a single log entry.
// Records are built by producers and never modified afterwards.
type Record struct {
	Time    time.Time
	Logger  string
	Level   int64
	Tag     string
	Message string
}

// AppendLine renders the record as one output line:
//
//	[<timestamp>] - [<logger-name>] - [<tag>] - <message>\n
//
// Control characters in name, tag and message are escaped so a record never
// spans more than one line.
func (r Record) AppendLine(buf []byte, timestampFormat string) []byte {
	return appendLine(buf, r, timestampFormat, nil)
}

// String returns the rendered line without the trailing newline.
func (r Record) String() string {
	line := r.AppendLine(nil, time.ANSIC)
	return string(line[:len(line)-1])
}

// appendLine is shared by the plain line renderer and sinks that decorate the tag
func appendLine(buf []byte, r Record, timestampFormat string, decorateTag func(string) string) []byte {
	buf = append(buf, '[')
	buf = r.Time.AppendFormat(buf, timestampFormat)
	buf = append(buf, "] - ["...)
	buf = appendEscaped(buf, r.Logger)
	buf = append(buf, "] - ["...)
	if decorateTag != nil {
		// Escape first, decorations carry their own control sequences
		buf = append(buf, decorateTag(string(appendEscaped(nil, r.Tag)))...)
	} else {
		buf = appendEscaped(buf, r.Tag)
	}
	buf = append(buf, "] - "...)
	buf = appendEscaped(buf, r.Message)
	buf = append(buf, '\n')
	return buf
}
