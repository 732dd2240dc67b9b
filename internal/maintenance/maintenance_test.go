package maintenance_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionlog-project/actionlog/internal/compression"
	"github.com/actionlog-project/actionlog/internal/logfile"
	"github.com/actionlog-project/actionlog/internal/maintenance"
	"github.com/actionlog-project/actionlog/pkg/config"
)

var today = time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.LogDirectory = t.TempDir()
	return cfg
}

// writeDayFile creates an uncompressed day file aged the given number of
// days before today.
func writeDayFile(t *testing.T, dir string, age int, content string) string {
	t.Helper()
	day := today.AddDate(0, 0, -age)
	path := logfile.Path(dir, day)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_RetentionWindow(t *testing.T) {
	cfg := testConfig(t)
	cfg.RetentionDays = 30
	for age := 0; age <= 40; age++ {
		writeDayFile(t, cfg.LogDirectory, age, "{}\n")
	}

	report := maintenance.New(cfg).Run(today)
	assert.Equal(t, 10, report.Deleted) // ages 31..40

	files, err := logfile.List(cfg.LogDirectory)
	require.NoError(t, err)
	cutoff := today.AddDate(0, 0, -30)
	for _, f := range files {
		assert.False(t, f.Day.Before(cutoff), "file %s is beyond the retention window", f.Name)
	}
	// Today's file is untouched.
	_, err = os.Stat(logfile.Path(cfg.LogDirectory, today))
	assert.NoError(t, err)
}

func TestRun_CompressesOldFiles(t *testing.T) {
	cfg := testConfig(t)
	cfg.CompressAfterDays = 7

	content := "{\"sequence_number\":1}\n{\"sequence_number\":2}\n"
	oldPath := writeDayFile(t, cfg.LogDirectory, 10, content)
	freshPath := writeDayFile(t, cfg.LogDirectory, 3, content)

	report := maintenance.New(cfg).Run(today)
	assert.Equal(t, 1, report.Compressed)

	// The old file is now compressed with identical logical content.
	_, err := os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))

	r, err := compression.Open(oldPath+".gz", true)
	require.NoError(t, err)
	defer r.Close()
	back, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, string(back))

	// The fresh file is left alone.
	_, err = os.Stat(freshPath)
	assert.NoError(t, err)
}

func TestRun_SizeBudget(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxTotalSizeMB = 1
	cfg.CompressAfterDays = 30 // keep compression out of this test
	cfg.RetentionDays = 365

	// Three day files of 400KB each: 1.2MB total, 1MB budget.
	big := make([]byte, 400*1024)
	for i := range big {
		big[i] = 'x'
	}
	for age := 1; age <= 3; age++ {
		day := today.AddDate(0, 0, -age)
		require.NoError(t, os.WriteFile(logfile.Path(cfg.LogDirectory, day), big, 0644))
	}

	report := maintenance.New(cfg).Run(today)
	assert.Equal(t, 1, report.Deleted, "oldest-first until under budget")

	files, err := logfile.List(cfg.LogDirectory)
	require.NoError(t, err)
	require.Len(t, files, 2)
	// The oldest file went first.
	assert.Equal(t, logfile.Name(today.AddDate(0, 0, -2)), files[0].Name)
}

func TestRun_SizeBudgetNeverDeletesToday(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxTotalSizeMB = 1
	cfg.RetentionDays = 365

	big := make([]byte, 2*1024*1024)
	require.NoError(t, os.WriteFile(logfile.Path(cfg.LogDirectory, today), big, 0644))

	maintenance.New(cfg).Run(today)

	_, err := os.Stat(logfile.Path(cfg.LogDirectory, today))
	assert.NoError(t, err, "today's file belongs to the writer")
}

func TestRun_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	writeDayFile(t, cfg.LogDirectory, 10, "{}\n")
	writeDayFile(t, cfg.LogDirectory, 40, "{}\n")

	first := maintenance.New(cfg).Run(today)
	assert.Equal(t, 1, first.Compressed)
	assert.Equal(t, 1, first.Deleted)

	second := maintenance.New(cfg).Run(today)
	assert.Equal(t, 0, second.Compressed)
	assert.Equal(t, 0, second.Deleted)
	assert.Equal(t, 0, second.Errors)
}

func TestRun_ContinuesPastBadFiles(t *testing.T) {
	cfg := testConfig(t)
	// A subdirectory matching nothing plus several valid old files.
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.LogDirectory, "nested"), 0755))
	for age := 35; age <= 37; age++ {
		writeDayFile(t, cfg.LogDirectory, age, fmt.Sprintf("{\"age\":%d}\n", age))
	}

	report := maintenance.New(cfg).Run(today)
	assert.Equal(t, 3, report.Deleted)
}

func TestRun_EmptyDirectory(t *testing.T) {
	cfg := testConfig(t)
	report := maintenance.New(cfg).Run(today)
	assert.Equal(t, 0, report.Deleted)
	assert.Equal(t, 0, report.Compressed)
	assert.NotEmpty(t, report.RunID)
}
