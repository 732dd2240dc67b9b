// Package compression handles gzip compression of rolled-over day log files
// and transparent decompressing reads for the query engine.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/actionlog-project/actionlog/pkg/errclass"
	"github.com/actionlog-project/actionlog/pkg/fsutil"
)

// Level is the gzip compression level.
type Level int

const (
	// LevelFast uses fastest compression (gzip level 1).
	LevelFast Level = 1
	// LevelDefault uses default compression (gzip level 6).
	LevelDefault Level = 6
	// LevelMax uses maximum compression (gzip level 9).
	LevelMax Level = 9
)

// CompressFile compresses path into path+".gz" and removes the original.
// The original is only removed after the compressed copy has been written,
// synced, and verified to decompress back to the original bytes, so a crash
// mid-compression never loses log content.
func CompressFile(path string, level Level) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	compressed, err := compressBytes(data, level)
	if err != nil {
		return "", fmt.Errorf("compress: %w", err)
	}

	gzPath := path + ".gz"
	if err := fsutil.AtomicWrite(gzPath, compressed, 0644); err != nil {
		return "", fmt.Errorf("write compressed file: %w", err)
	}

	if err := verify(gzPath, data); err != nil {
		os.Remove(gzPath)
		return "", err
	}

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("remove original: %w", err)
	}
	return gzPath, nil
}

// verify decompresses the written file and compares against the original.
func verify(gzPath string, original []byte) error {
	f, err := os.Open(gzPath)
	if err != nil {
		return errclass.ErrCompressVerify.WithMessagef("reopen %s: %v", gzPath, err)
	}
	defer f.Close()

	r, err := gzip.NewReader(f)
	if err != nil {
		return errclass.ErrCompressVerify.WithMessagef("gzip header %s: %v", gzPath, err)
	}
	defer r.Close()

	roundTrip, err := io.ReadAll(r)
	if err != nil {
		return errclass.ErrCompressVerify.WithMessagef("decompress %s: %v", gzPath, err)
	}
	if !bytes.Equal(roundTrip, original) {
		return errclass.ErrCompressVerify.WithMessagef("%s: content mismatch after round trip", gzPath)
	}
	return nil
}

// Open returns a streaming reader over a day file, decompressing on the fly
// when the file is gzip-compressed. The caller must close the result.
func Open(path string, compressed bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if !compressed {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (r *gzipReadCloser) Read(p []byte) (int, error) {
	return r.gz.Read(p)
}

func (r *gzipReadCloser) Close() error {
	gzErr := r.gz.Close()
	fErr := r.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

func compressBytes(data []byte, level Level) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, int(level))
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}
	return buf.Bytes(), nil
}
