// Package writer appends batches of events to the current day's log file,
// rolling over to a new file when the UTC date changes. Exactly one Writer
// per process owns write access to the current file.
package writer

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/actionlog-project/actionlog/internal/logfile"
	"github.com/actionlog-project/actionlog/pkg/jsonutil"
	"github.com/actionlog-project/actionlog/pkg/logging"
	"github.com/actionlog-project/actionlog/pkg/model"
)

// Writer appends JSONL batches to day files.
type Writer struct {
	mu      sync.Mutex
	dir     string
	file    *os.File
	openDay time.Time
	dropped atomic.Uint64
}

// New creates a Writer for the given log directory. The directory and the
// day file are created lazily on first write.
func New(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteBatch appends one JSONL line per event to the file for that event's
// day, rolling over first if the open file's date no longer matches. A
// failed write is retried once after reopening the file; if the retry also
// fails that day's segment is dropped and counted, later segments are still
// attempted, and the first failure is returned.
func (w *Writer) WriteBatch(events []*model.Event) error {
	if len(events) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var buf bytes.Buffer
	var firstErr error
	segmentDay := logfile.Day(events[0].Timestamp)
	segmentLen := 0
	for _, e := range events {
		day := logfile.Day(e.Timestamp)
		if !day.Equal(segmentDay) {
			if err := w.writeSegment(segmentDay, &buf, segmentLen); err != nil && firstErr == nil {
				firstErr = err
			}
			buf.Reset()
			segmentDay = day
			segmentLen = 0
		}
		line, collided, err := jsonutil.EncodeEvent(e)
		if err != nil {
			// An unmarshalable payload value loses the event, not the batch.
			w.dropped.Add(1)
			logging.ErrorErr("drop unencodable event", err, map[string]any{"sequence": e.Sequence})
			continue
		}
		if len(collided) > 0 {
			logging.WarnOnce("payload-field-collision",
				"payload fields collide with envelope fields, dropped",
				map[string]any{"fields": collided})
		}
		buf.Write(line)
		buf.WriteByte('\n')
		segmentLen++
	}
	if err := w.writeSegment(segmentDay, &buf, segmentLen); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// writeSegment writes buffered lines to the file for day, retrying once.
// segmentLen is the number of events in the buffer, counted as dropped if
// the retry also fails.
func (w *Writer) writeSegment(day time.Time, buf *bytes.Buffer, segmentLen int) error {
	if buf.Len() == 0 {
		return nil
	}

	err := w.appendTo(day, buf.Bytes())
	if err == nil {
		return nil
	}

	// One retry with a fresh handle, then the segment is dropped.
	w.closeLocked()
	if retryErr := w.appendTo(day, buf.Bytes()); retryErr == nil {
		return nil
	}

	w.dropped.Add(uint64(segmentLen))
	logging.ErrorErr("write failed after retry, segment dropped", err,
		map[string]any{"events": segmentLen, "day": logfile.Name(day)})
	return fmt.Errorf("write batch: %w", err)
}

func (w *Writer) appendTo(day time.Time, data []byte) error {
	if err := w.ensureFile(day); err != nil {
		return err
	}
	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// ensureFile opens (creating if needed) the file for day, closing the
// previously open day's file on rollover.
func (w *Writer) ensureFile(day time.Time) error {
	if w.file != nil && w.openDay.Equal(day) {
		return nil
	}
	w.closeLocked()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(logfile.Path(w.dir, day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open day file: %w", err)
	}
	w.file = f
	w.openDay = day
	return nil
}

// Dropped returns the number of events dropped due to write failures or
// unencodable payloads.
func (w *Writer) Dropped() uint64 {
	return w.dropped.Load()
}

// Close flushes and releases the current file handle.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) closeLocked() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.openDay = time.Time{}
	return err
}
