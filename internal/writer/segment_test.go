package writer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionlog-project/actionlog/pkg/model"
)

func seqEvent(seq uint64, ts time.Time) *model.Event {
	return &model.Event{
		Timestamp: ts,
		Sequence:  seq,
		Type:      model.EventUserInput,
		SessionID: "s1",
		Status:    model.StatusSuccess,
	}
}

func TestWriteBatch_DropCountPerSegment(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)
	defer w.Close()

	day1 := time.Date(2025, 11, 21, 23, 59, 59, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	// Open day1's handle, then break the directory so only the rollover
	// segment can fail: day1 appends go through the open file, day2 needs
	// a directory that can no longer be created.
	require.NoError(t, w.WriteBatch([]*model.Event{seqEvent(1, day1)}))
	w.mu.Lock()
	w.dir = filepath.Join(dir, "2025-11-21.jsonl", "sub")
	w.mu.Unlock()

	err := w.WriteBatch([]*model.Event{seqEvent(2, day1), seqEvent(3, day2)})
	require.Error(t, err)

	assert.Equal(t, uint64(1), w.Dropped(), "only the failed segment's events count as dropped")
}
