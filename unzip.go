package tripdata

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// extract unpacks the archive at zipPath into the data directory.
func (f *Fetcher) extract(zipPath string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrap(err, "open zip")
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if skipEntry(entry.Name) {
			f.verbosef("skipping %s\n", entry.Name)
			continue
		}
		if err := f.extractEntry(entry); err != nil {
			return errors.Wrapf(err, "entry %s", entry.Name)
		}
	}
	return nil
}

// skipEntry filters the macOS resource-fork junk that ships inside the
// public bucket's archives.
func skipEntry(name string) bool {
	return strings.HasPrefix(name, "__MACOSX/") ||
		strings.HasPrefix(filepath.Base(name), "._")
}

func (f *Fetcher) extractEntry(entry *zip.File) error {
	dest := filepath.Join(f.DataDir, filepath.Clean(entry.Name))

	// Reject entries that would escape the data directory
	root := filepath.Clean(f.DataDir) + string(os.PathSeparator)
	if !strings.HasPrefix(dest, root) {
		return errors.Errorf("illegal path %q", entry.Name)
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}
