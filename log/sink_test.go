package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(tag, msg string) Record {
	return Record{
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Logger:  "sink-test",
		Level:   LevelInfo,
		Tag:     tag,
		Message: msg,
	}
}

// TestConsoleSinkPlain verifies uncolored output matches the line renderer
func TestConsoleSinkPlain(t *testing.T) {
	var buf bytes.Buffer
	s := newConsoleSink(&buf, false)

	r := testRecord(TagInfo, "hello")
	require.NoError(t, s.WriteRecord(r, time.RFC3339))
	assert.Equal(t, string(r.AppendLine(nil, time.RFC3339)), buf.String())
}

// TestConsoleSinkColor verifies only the tag is decorated
func TestConsoleSinkColor(t *testing.T) {
	var buf bytes.Buffer
	s := newConsoleSink(&buf, true)

	require.NoError(t, s.WriteRecord(testRecord(TagError, "failed"), time.RFC3339))
	out := buf.String()

	assert.Contains(t, out, "\x1b[31m"+TagError+"\x1b[0m")
	assert.True(t, strings.HasSuffix(out, "] - failed\n"))

	// Unknown tags stay plain
	buf.Reset()
	require.NoError(t, s.WriteRecord(testRecord("access", "GET /"), time.RFC3339))
	assert.NotContains(t, buf.String(), "\x1b[")
}

// TestFileSinkWriteAndClose covers appending, directory creation and close
func TestFileSinkWriteAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.log")
	s, err := NewFileSink(path)
	require.NoError(t, err)

	_, err = s.Write([]byte("one\n"))
	require.NoError(t, err)
	_, err = s.Write([]byte("two\n"))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	_, err = s.Write([]byte("three\n"))
	assert.ErrorIs(t, err, ErrSinkClosed)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(content))
}

// TestFileSinkDuplicatePath verifies the second open on a path is flagged
func TestFileSinkDuplicatePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.log")

	first, err := NewFileSink(path)
	require.NoError(t, err)

	second, err := NewFileSink(path)
	require.True(t, errors.Is(err, ErrDuplicateFileSink))
	require.NotNil(t, second, "duplicate sink is still usable")

	require.NoError(t, second.Close())
	require.NoError(t, first.Close())

	// All claims released
	third, err := NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, third.Close())
}

// TestFileSinkRotate verifies rotation keeps the active path writable
func TestFileSinkRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rot.log")
	s, err := NewFileSink(path, FileSinkOptions{MaxBackups: 2})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Write([]byte("before\n"))
	require.NoError(t, err)
	require.NoError(t, s.Rotate())
	_, err = s.Write([]byte("after\n"))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// TestMemorySink covers the in-memory helper
func TestMemorySink(t *testing.T) {
	s := NewMemorySink()
	buf := []byte("line\n")
	_, _ = s.Write(buf)
	buf[0] = 'X'

	assert.Equal(t, []string{"line\n"}, s.Lines())
	s.Reset()
	assert.Equal(t, 0, s.Len())
}
