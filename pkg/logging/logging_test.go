package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionlog-project/actionlog/pkg/logging"
)

func capture(level logging.Level) (*logging.Logger, *bytes.Buffer) {
	l := logging.NewLogger(level)
	var buf bytes.Buffer
	l.SetOutput(&buf)
	return l, &buf
}

func TestLogger_LevelFilter(t *testing.T) {
	l, buf := capture(logging.LevelWarn)

	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"w"`)
	assert.Contains(t, lines[1], `"e"`)
}

func TestLogger_EntryShape(t *testing.T) {
	l, buf := capture(logging.LevelInfo)

	l.Info("batch written", map[string]any{"count": 3})

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, logging.LevelInfo, entry.Level)
	assert.Equal(t, "batch written", entry.Message)
	assert.Equal(t, float64(3), entry.Fields["count"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestLogger_ErrorErr(t *testing.T) {
	l, buf := capture(logging.LevelInfo)

	l.ErrorErr("close log file", errors.New("disk gone"), map[string]any{"path": "x"})

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "disk gone", entry.Fields["error"])
	assert.Equal(t, "x", entry.Fields["path"])
}

func TestLogger_WarnOnce(t *testing.T) {
	l, buf := capture(logging.LevelInfo)

	for i := 0; i < 5; i++ {
		l.WarnOnce("queue-full", "event queue full, dropping events")
	}
	l.WarnOnce("degraded-sync", "falling back to synchronous writes")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2, "one line per distinct key")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logging.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, logging.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, logging.LevelInfo, logging.ParseLevel(""))
	assert.Equal(t, logging.LevelInfo, logging.ParseLevel("verbose"))
}
