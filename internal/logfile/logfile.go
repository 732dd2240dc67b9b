// Package logfile defines the on-disk naming contract for day log files:
// one file per UTC calendar day, "YYYY-MM-DD.jsonl", with ".gz" appended once
// compressed. The writer, maintenance, and query engine all share this
// contract instead of a separate index; the directory listing is the index.
package logfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// Ext is the extension of an uncompressed day file.
	Ext = ".jsonl"
	// CompressedExt is the extension of a compressed day file.
	CompressedExt = ".jsonl.gz"

	dateLayout = "2006-01-02"
)

// Name returns the uncompressed filename for the given day.
func Name(day time.Time) string {
	return day.UTC().Format(dateLayout) + Ext
}

// Path returns the full path of the uncompressed file for the given day.
func Path(dir string, day time.Time) string {
	return filepath.Join(dir, Name(day))
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsCompressed reports whether the filename denotes a compressed day file.
func IsCompressed(name string) bool {
	return strings.HasSuffix(name, CompressedExt)
}

// ParseDate extracts the day from a log filename. The second return value is
// false for files that do not follow the naming contract.
func ParseDate(name string) (time.Time, bool) {
	base := filepath.Base(name)
	switch {
	case strings.HasSuffix(base, CompressedExt):
		base = strings.TrimSuffix(base, CompressedExt)
	case strings.HasSuffix(base, Ext):
		base = strings.TrimSuffix(base, Ext)
	default:
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(dateLayout, base, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// Info describes one day file found on disk.
type Info struct {
	Path       string
	Name       string
	Day        time.Time
	Compressed bool
	Size       int64
}

// List enumerates all day files in dir, sorted oldest first. Files that do
// not match the naming contract are ignored. A missing directory yields an
// empty list.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log directory: %w", err)
	}

	var files []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		day, ok := ParseDate(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, Info{
			Path:       filepath.Join(dir, entry.Name()),
			Name:       entry.Name(),
			Day:        day,
			Compressed: IsCompressed(entry.Name()),
			Size:       info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Day.Equal(files[j].Day) {
			return files[i].Name < files[j].Name
		}
		return files[i].Day.Before(files[j].Day)
	})
	return files, nil
}
