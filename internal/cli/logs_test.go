package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionlog-project/actionlog/internal/logfile"
	"github.com/actionlog-project/actionlog/pkg/errclass"
	"github.com/actionlog-project/actionlog/pkg/model"
)

func resetLogsFlags() {
	logsDate, logsFrom, logsTo = "", "", ""
	logsTypes = nil
	logsStatus, logsSession, logsKeyword = "", "", ""
	logsLimit = 50
	logsFormat = "table"
}

func TestBuildFilterOptions_DefaultsToToday(t *testing.T) {
	resetLogsFlags()

	opts, err := buildFilterOptions()
	require.NoError(t, err)
	today := logfile.Day(time.Now())
	assert.Equal(t, today, opts.From)
	assert.Equal(t, today, opts.To)
	assert.Equal(t, 50, opts.Limit)
}

func TestBuildFilterOptions_SingleDate(t *testing.T) {
	resetLogsFlags()
	logsDate = "2025-11-21"
	logsStatus = "error"
	logsTypes = []string{"tool_call", "tool_error"}
	logsLimit = 5

	opts, err := buildFilterOptions()
	require.NoError(t, err)
	day := time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, day, opts.From)
	assert.Equal(t, day, opts.To)
	assert.Equal(t, model.StatusError, opts.Status)
	assert.Equal(t, []model.EventType{model.EventToolCall, model.EventToolError}, opts.Types)
	assert.Equal(t, 5, opts.Limit)
}

func TestBuildFilterOptions_OpenEndedRange(t *testing.T) {
	resetLogsFlags()
	logsFrom = "2025-11-01"

	opts, err := buildFilterOptions()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), opts.From)
	assert.True(t, opts.To.IsZero(), "open-ended range keeps the upper bound unset")
}

func TestBuildFilterOptions_BadDate(t *testing.T) {
	resetLogsFlags()
	logsDate = "21/11/2025"

	_, err := buildFilterOptions()
	assert.ErrorIs(t, err, errclass.ErrDateInvalid)
}

func TestPayloadSummary(t *testing.T) {
	assert.Equal(t, "", payloadSummary(nil))
	assert.Equal(t, "content=hello", payloadSummary(map[string]any{"content": "hello"}))

	long := payloadSummary(map[string]any{"a": strings.Repeat("x", 200)})
	assert.LessOrEqual(t, len(long), 130)
}
