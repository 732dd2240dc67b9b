package compression_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionlog-project/actionlog/internal/compression"
)

func TestCompressFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2025-11-01.jsonl")
	content := []byte("{\"a\":1}\n{\"b\":2}\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	gzPath, err := compression.CompressFile(path, compression.LevelDefault)
	require.NoError(t, err)
	assert.Equal(t, path+".gz", gzPath)

	// Original is gone only after the compressed copy was verified.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	r, err := compression.Open(gzPath, true)
	require.NoError(t, err)
	defer r.Close()
	back, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, back)
}

func TestCompressFile_MissingFile(t *testing.T) {
	_, err := compression.CompressFile(filepath.Join(t.TempDir(), "nope.jsonl"), compression.LevelFast)
	assert.Error(t, err)
}

func TestOpen_Uncompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2025-11-01.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("plain\n"), 0644))

	r, err := compression.Open(path, false)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "plain\n", string(data))
}

func TestOpen_NotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2025-11-01.jsonl.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip at all"), 0644))

	_, err := compression.Open(path, true)
	assert.Error(t, err)
}
