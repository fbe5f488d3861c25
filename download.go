package tripdata

import (
	"context"
	"io"
	"net/http"
	nurl "net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kennygrant/sanitize"
	"github.com/pkg/errors"
)

var maxElapsedTime = 30 * time.Second

func (f *Fetcher) download(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	var resp *http.Response
	op := func() error {
		var err error
		resp, err = f.httpClient.Do(req)
		if err == nil && (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) {
			resp.Body.Close()
			err = errors.Errorf("failed to fetch with status code: %d", resp.StatusCode)
		}
		return err
	}
	exp := backoff.NewExponentialBackOff()
	exp.MaxElapsedTime = maxElapsedTime
	bo := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(f.MaxRetries)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp, nil
}

// archiveName derives the local file name for a downloaded archive from its
// URL, falling back to a sanitized name when the path has no usable base.
func archiveName(url *nurl.URL) string {
	name := path.Base(url.Path)
	if name == "." || name == "/" || name == "" {
		name = sanitize.BaseName(url.Hostname()+url.Path) + ".zip"
	}
	return name
}

// saveArchive streams body to a temporary file in the data directory and
// renames it into place once the write completes, so a partial download
// never shows up under the final name.
func (f *Fetcher) saveArchive(name string, body io.Reader) (string, error) {
	dst := filepath.Join(f.DataDir, name)
	tmp := dst + ".part"

	file, err := os.Create(tmp)
	if err != nil {
		return "", errors.Wrap(err, "create file")
	}

	_, err = io.Copy(file, body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", errors.Wrap(err, "write archive")
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", errors.Wrap(err, "rename archive")
	}
	return dst, nil
}
