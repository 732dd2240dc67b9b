package logfile_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionlog-project/actionlog/internal/logfile"
)

func TestName(t *testing.T) {
	day := time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-11-21.jsonl", logfile.Name(day))
}

func TestDay_TruncatesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:30 local on the 22nd is still the 21st in UTC.
	ts := time.Date(2025, 11, 22, 2, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC), logfile.Day(ts))
}

func TestParseDate(t *testing.T) {
	day, ok := logfile.ParseDate("2025-11-21.jsonl")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC), day)

	day, ok = logfile.ParseDate("2025-11-21.jsonl.gz")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC), day)

	_, ok = logfile.ParseDate("notes.txt")
	assert.False(t, ok)
	_, ok = logfile.ParseDate("not-a-date.jsonl")
	assert.False(t, ok)
}

func TestIsCompressed(t *testing.T) {
	assert.False(t, logfile.IsCompressed("2025-11-21.jsonl"))
	assert.True(t, logfile.IsCompressed("2025-11-21.jsonl.gz"))
}

func TestList_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"2025-11-22.jsonl",
		"2025-11-20.jsonl.gz",
		"2025-11-21.jsonl",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	files, err := logfile.List(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "2025-11-20.jsonl.gz", files[0].Name)
	assert.True(t, files[0].Compressed)
	assert.Equal(t, "2025-11-21.jsonl", files[1].Name)
	assert.Equal(t, "2025-11-22.jsonl", files[2].Name)
	assert.Equal(t, int64(1), files[0].Size)
}

func TestList_MissingDirIsEmpty(t *testing.T) {
	files, err := logfile.List(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
