// Package query provides a streaming filter/aggregate reader over the
// on-disk day files. Files are scanned line by line, transparently
// decompressing compressed days; at no point is more than one line's worth
// of events held in memory per pass.
package query

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/actionlog-project/actionlog/internal/compression"
	"github.com/actionlog-project/actionlog/internal/logfile"
	"github.com/actionlog-project/actionlog/pkg/errclass"
	"github.com/actionlog-project/actionlog/pkg/jsonutil"
	"github.com/actionlog-project/actionlog/pkg/logging"
	"github.com/actionlog-project/actionlog/pkg/model"
)

// maxLineSize bounds the memory held for a single JSONL line. A longer line
// is discarded in bounded memory and the scan continues with the next line.
const maxLineSize = 1024 * 1024

// Engine reads stored events from a log directory.
type Engine struct {
	dir string
}

// New creates a query engine over the given log directory.
func New(dir string) *Engine {
	return &Engine{dir: dir}
}

// FilterOptions select events. All supplied filters apply as a conjunction;
// zero values mean "no constraint". From and To are inclusive day bounds.
type FilterOptions struct {
	From      time.Time
	To        time.Time
	Types     []model.EventType
	Status    model.Status
	SessionID string
	Keyword   string
	Limit     int
}

// ParseDay parses a "YYYY-MM-DD" date selector.
func ParseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, errclass.ErrDateInvalid.WithMessagef("%q (want YYYY-MM-DD)", s)
	}
	return day, nil
}

func (o *FilterOptions) validate() error {
	if !o.From.IsZero() && !o.To.IsZero() && o.To.Before(o.From) {
		return errclass.ErrRangeInvalid.WithMessagef("%s is after %s",
			o.From.Format("2006-01-02"), o.To.Format("2006-01-02"))
	}
	for _, t := range o.Types {
		if !t.Valid() {
			return errclass.ErrTypeUnknown.WithMessage(string(t))
		}
	}
	if o.Status != "" && o.Status != model.StatusSuccess && o.Status != model.StatusError {
		return errclass.ErrStatusInvalid.WithMessage(string(o.Status))
	}
	return nil
}

// Filter returns a cursor streaming matching events in file order (oldest
// day first, sequence order within a day). The cursor is a single forward
// pass; call Filter again for a fresh one.
func (e *Engine) Filter(opts FilterOptions) (*Cursor, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	files, err := e.filesInRange(opts.From, opts.To)
	if err != nil {
		return nil, err
	}
	return &Cursor{opts: opts, files: files}, nil
}

func (e *Engine) filesInRange(from, to time.Time) ([]logfile.Info, error) {
	all, err := logfile.List(e.dir)
	if err != nil {
		return nil, errclass.ErrDirUnreadable.WithMessage(err.Error())
	}
	var files []logfile.Info
	for _, f := range all {
		if !from.IsZero() && f.Day.Before(logfile.Day(from)) {
			continue
		}
		if !to.IsZero() && f.Day.After(logfile.Day(to)) {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// Cursor is a lazy, finite, single-pass sequence of matching events.
type Cursor struct {
	opts    FilterOptions
	files   []logfile.Info
	reader  io.ReadCloser
	br      *bufio.Reader
	yielded int
	done    bool
}

// Next returns the next matching event, or io.EOF once the pass is
// exhausted or the limit has been reached. Malformed and over-long lines
// are skipped.
func (c *Cursor) Next() (*model.Event, error) {
	if c.done || (c.opts.Limit > 0 && c.yielded >= c.opts.Limit) {
		c.Close()
		return nil, io.EOF
	}

	for {
		if c.br == nil {
			if len(c.files) == 0 {
				c.Close()
				return nil, io.EOF
			}
			f := c.files[0]
			c.files = c.files[1:]
			r, err := compression.Open(f.Path, f.Compressed)
			if err != nil {
				return nil, err
			}
			c.reader = r
			c.br = bufio.NewReaderSize(r, 64*1024)
		}

		line, err := c.readLine()
		if err == io.EOF {
			c.reader.Close()
			c.reader = nil
			c.br = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		if line == nil {
			continue // over-long line, discarded
		}

		e, derr := jsonutil.DecodeEvent(line)
		if derr != nil {
			continue // one corrupt line never invalidates the rest
		}
		if !c.matches(e, line) {
			continue
		}
		c.yielded++
		return e, nil
	}
}

// readLine returns the next line without its trailing newline, (nil, nil)
// for a line longer than maxLineSize whose remainder has been discarded,
// or io.EOF at end of file.
func (c *Cursor) readLine() ([]byte, error) {
	var line []byte
	oversized := false
	for {
		chunk, err := c.br.ReadSlice('\n')
		if !oversized {
			line = append(line, chunk...)
			if len(line) > maxLineSize {
				oversized = true
				line = nil
				logging.WarnOnce("query-line-too-long",
					"skipping log line over the size limit",
					map[string]any{"limit_bytes": maxLineSize})
			}
		}
		switch err {
		case bufio.ErrBufferFull:
			continue
		case nil:
			if oversized {
				return nil, nil
			}
			return bytes.TrimSuffix(line, []byte("\n")), nil
		case io.EOF:
			if oversized || len(line) == 0 {
				return nil, io.EOF
			}
			return line, nil
		default:
			return nil, err
		}
	}
}

func (c *Cursor) matches(e *model.Event, line []byte) bool {
	if len(c.opts.Types) > 0 {
		found := false
		for _, t := range c.opts.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.opts.Status != "" && e.Status != c.opts.Status {
		return false
	}
	if c.opts.SessionID != "" && e.SessionID != c.opts.SessionID {
		return false
	}
	if c.opts.Keyword != "" && !containsKeyword(line, c.opts.Keyword) {
		return false
	}
	return true
}

// containsKeyword matches the raw line so payload values are searchable
// without re-serializing. Both sides are NFC-normalized and case-folded to
// keep matching stable across Unicode encodings of the same text.
func containsKeyword(line []byte, keyword string) bool {
	l := strings.ToLower(norm.NFC.String(string(line)))
	k := strings.ToLower(norm.NFC.String(keyword))
	return strings.Contains(l, k)
}

// Close releases the underlying file handle. Safe to call repeatedly.
func (c *Cursor) Close() error {
	c.done = true
	if c.reader != nil {
		err := c.reader.Close()
		c.reader = nil
		c.br = nil
		return err
	}
	return nil
}

// Summarize performs one streaming pass over the given day range and
// accumulates counts.
func (e *Engine) Summarize(from, to time.Time) (*model.Summary, error) {
	cur, err := e.Filter(FilterOptions{From: from, To: to})
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	summary := &model.Summary{
		ByType:   make(map[string]int),
		ByStatus: make(map[string]int),
	}
	sessions := make(map[string]bool)

	for {
		ev, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		summary.TotalCount++
		summary.ByType[string(ev.Type)]++
		summary.ByStatus[string(ev.Status)]++
		if ev.Status == model.StatusError {
			summary.ErrorCount++
		}
		sessions[ev.SessionID] = true
	}
	summary.SessionCount = len(sessions)
	return summary, nil
}
