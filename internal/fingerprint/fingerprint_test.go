package fingerprint

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestFile_Deterministic(t *testing.T) {
	content := []byte("the quick brown fox jumps over the lazy dog")
	path := writeTemp(t, "a.tar.gz", content)

	first, err := File(path)
	require.NoError(t, err)
	second, err := File(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 16)
}

func TestFile_IndependentOfName(t *testing.T) {
	content := []byte("same bytes, different file names")

	a, err := File(writeTemp(t, "one.sql", content))
	require.NoError(t, err)
	b, err := File(writeTemp(t, "two.sql", content))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFile_ContentSensitive(t *testing.T) {
	a, err := File(writeTemp(t, "a.sql", []byte("INSERT INTO t VALUES (1);")))
	require.NoError(t, err)
	b, err := File(writeTemp(t, "b.sql", []byte("INSERT INTO t VALUES (2);")))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestFile_EmptyFile(t *testing.T) {
	// xxhash-64 of the empty input.
	hash, err := File(writeTemp(t, "empty", nil))
	require.NoError(t, err)
	assert.Equal(t, "ef46db3751d8e999", hash)
}

func TestFile_LargerThanChunk(t *testing.T) {
	// Content spanning multiple read chunks must digest the same as a
	// single-shot read of the whole stream.
	content := make([]byte, 3*chunkSize+17)
	_, err := rand.Read(content)
	require.NoError(t, err)

	fromFile, err := File(writeTemp(t, "big.bin", content))
	require.NoError(t, err)
	fromReader, err := Reader(bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, fromReader, fromFile)
}

func TestFile_Missing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
