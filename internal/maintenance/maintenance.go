// Package maintenance performs disk housekeeping over the log directory:
// compressing rolled-over day files, enforcing the retention window, and
// keeping total size under budget. It never touches today's file, which the
// writer may be holding open. Idempotent and safe to run on every startup.
package maintenance

import (
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/actionlog-project/actionlog/internal/compression"
	"github.com/actionlog-project/actionlog/internal/logfile"
	"github.com/actionlog-project/actionlog/pkg/config"
	"github.com/actionlog-project/actionlog/pkg/logging"
)

// Maintainer runs housekeeping passes.
type Maintainer struct {
	cfg *config.Config
}

// New creates a Maintainer for the configured log directory.
func New(cfg *config.Config) *Maintainer {
	return &Maintainer{cfg: cfg}
}

// Report summarizes one maintenance run.
type Report struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	Compressed     int       `json:"compressed"`
	Deleted        int       `json:"deleted"`
	BytesReclaimed int64     `json:"bytes_reclaimed"`
	Errors         int       `json:"errors"`
}

// Run executes one full pass: compress files older than the compression age,
// delete files beyond the retention window, then delete oldest-first until
// the directory fits the size budget. Per-file failures are logged and the
// pass continues with the remaining files rather than aborting.
func (m *Maintainer) Run(today time.Time) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	files, err := logfile.List(m.cfg.LogDirectory)
	if err != nil {
		logging.ErrorErr("maintenance: list log files", err)
		report.Errors++
		return report
	}

	compressCutoff := today.AddDate(0, 0, -m.cfg.CompressAfterDays)
	retentionCutoff := today.AddDate(0, 0, -m.cfg.RetentionDays)

	for _, f := range files {
		if !f.Day.Before(today) {
			continue // today's file belongs to the writer
		}

		if f.Day.Before(retentionCutoff) {
			if m.delete(f, report) {
				continue
			}
		}

		if !f.Compressed && f.Day.Before(compressCutoff) {
			m.compress(f, report)
		}
	}

	m.enforceSizeBudget(today, report)

	logging.Info("maintenance run complete", map[string]any{
		"run_id":          report.RunID,
		"compressed":      report.Compressed,
		"deleted":         report.Deleted,
		"bytes_reclaimed": report.BytesReclaimed,
		"errors":          report.Errors,
	})
	return report
}

// delete removes one file; returns true when the file is gone.
func (m *Maintainer) delete(f logfile.Info, report *Report) bool {
	if err := os.Remove(f.Path); err != nil {
		logging.ErrorErr("maintenance: delete log file", err, map[string]any{"file": f.Name})
		report.Errors++
		return false
	}
	report.Deleted++
	report.BytesReclaimed += f.Size
	return true
}

func (m *Maintainer) compress(f logfile.Info, report *Report) {
	gzPath, err := compression.CompressFile(f.Path, compression.LevelDefault)
	if err != nil {
		logging.ErrorErr("maintenance: compress log file", err, map[string]any{"file": f.Name})
		report.Errors++
		return
	}
	report.Compressed++
	if st, err := os.Stat(gzPath); err == nil {
		report.BytesReclaimed += f.Size - st.Size()
	}
}

// enforceSizeBudget deletes oldest-first until total directory size fits
// under the configured budget. Today's file is never a candidate.
func (m *Maintainer) enforceSizeBudget(today time.Time, report *Report) {
	budget := int64(m.cfg.MaxTotalSizeMB) * 1024 * 1024

	files, err := logfile.List(m.cfg.LogDirectory)
	if err != nil {
		logging.ErrorErr("maintenance: relist log files", err)
		report.Errors++
		return
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}

	for _, f := range files {
		if total <= budget {
			return
		}
		if !f.Day.Before(today) {
			continue
		}
		if m.delete(f, report) {
			total -= f.Size
		}
	}
}
