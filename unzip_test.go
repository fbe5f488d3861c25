package tripdata

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, dir string, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(dir, "archive.zip")
	require.NoError(t, os.WriteFile(path, makeZip(t, entries), 0644))
	return path
}

func TestExtract(t *testing.T) {
	fetcher := &Fetcher{DataDir: t.TempDir()}
	fetcher.Validate()

	zipPath := writeZip(t, t.TempDir(), map[string]string{
		"202403-citibike-tripdata.csv":        "ride_id,started_at\n",
		"nested/202403-citibike-tripdata.csv": "ride_id,started_at\n",
	})

	require.NoError(t, fetcher.extract(zipPath))

	content, err := os.ReadFile(filepath.Join(fetcher.DataDir, "202403-citibike-tripdata.csv"))
	require.NoError(t, err)
	assert.Equal(t, "ride_id,started_at\n", string(content))

	_, err = os.Stat(filepath.Join(fetcher.DataDir, "nested", "202403-citibike-tripdata.csv"))
	assert.NoError(t, err)
}

func TestExtractSkipsMacOSJunk(t *testing.T) {
	fetcher := &Fetcher{DataDir: t.TempDir()}
	fetcher.Validate()

	zipPath := writeZip(t, t.TempDir(), map[string]string{
		"202403-citibike-tripdata.csv":          "ride_id\n",
		"__MACOSX/202403-citibike-tripdata.csv": "junk",
		"._202403-citibike-tripdata.csv":        "junk",
	})

	require.NoError(t, fetcher.extract(zipPath))

	_, err := os.Stat(filepath.Join(fetcher.DataDir, "202403-citibike-tripdata.csv"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(fetcher.DataDir, "__MACOSX"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(fetcher.DataDir, "._202403-citibike-tripdata.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	fetcher := &Fetcher{DataDir: t.TempDir()}
	fetcher.Validate()

	zipPath := writeZip(t, t.TempDir(), map[string]string{
		"../evil.csv": "ride_id\n",
	})

	err := fetcher.extract(zipPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "illegal path")
}

func TestExtractRemovesPartialFileOnError(t *testing.T) {
	fetcher := &Fetcher{DataDir: t.TempDir()}
	fetcher.Validate()

	// Build an archive with a stored entry, then corrupt its content so
	// the CRC check fails while the entry is being copied out
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.CreateHeader(&zip.FileHeader{
		Name:   "202403-citibike-tripdata.csv",
		Method: zip.Store,
	})
	require.NoError(t, err)
	_, err = fw.Write([]byte("ride_id,started_at\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data := buf.Bytes()
	i := bytes.Index(data, []byte("ride_id"))
	require.GreaterOrEqual(t, i, 0)
	data[i] ^= 0xff

	zipPath := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(zipPath, data, 0644))

	err = fetcher.extract(zipPath)
	assert.Error(t, err)

	// The half-written destination must not be left behind
	_, err = os.Stat(filepath.Join(fetcher.DataDir, "202403-citibike-tripdata.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractBadZip(t *testing.T) {
	fetcher := &Fetcher{DataDir: t.TempDir()}
	fetcher.Validate()

	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip"), 0644))

	err := fetcher.extract(path)
	assert.Error(t, err)
}
