package tripdata

import (
	"context"
	"net/http"
	nurl "net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultBaseURL is the public bucket hosting the monthly archives.
	DefaultBaseURL = "https://s3.amazonaws.com/tripdata/"

	// DefaultDataDir is where archives are extracted when no directory
	// is configured.
	DefaultDataDir = "raw_data"
)

var (
	defaultUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:73.0) Gecko/20100101 Firefox/73.0"

	// DefaultStartMonth is the first month published under the current
	// archive naming scheme.
	DefaultStartMonth = Month{Year: 2024, Month: time.January}

	errNotValidated = errors.New("fetcher hasn't been validated")
)

// Fetcher is the core of tripdata, which downloads monthly trip-data
// archives and extracts their CSVs into a local data directory.
type Fetcher struct {
	BaseURL            string
	DataDir            string
	StartMonth         Month
	PublicationLagDays int

	UserAgent        string
	EnableLog        bool
	EnableVerboseLog bool
	KeepZip          bool

	Transport             http.RoundTripper
	RequestTimeout        time.Duration
	MaxRetries            int
	MaxConcurrentDownload int64

	isValidated bool
	httpClient  *http.Client
	dlSemaphore *semaphore.Weighted
	now         func() time.Time
}

// Validate prepares Fetcher to make sure its configurations are valid and
// ready to use. Must be run at least once before any fetch started.
func (f *Fetcher) Validate() {
	if f.BaseURL == "" {
		f.BaseURL = DefaultBaseURL
	}

	if f.DataDir == "" {
		f.DataDir = DefaultDataDir
	}

	if (f.StartMonth == Month{}) {
		f.StartMonth = DefaultStartMonth
	}

	if f.UserAgent == "" {
		f.UserAgent = defaultUserAgent
	}

	if f.MaxConcurrentDownload <= 0 {
		f.MaxConcurrentDownload = 1
	}

	// A negative retry count would convert to a huge uint64 in the
	// backoff setup, a negative lag would shift availability backwards
	if f.MaxRetries < 0 {
		f.MaxRetries = 0
	}

	if f.PublicationLagDays < 0 {
		f.PublicationLagDays = 0
	}

	if f.Transport == nil {
		f.Transport = http.DefaultTransport
	}

	if f.now == nil {
		f.now = time.Now
	}

	f.isValidated = true
	f.dlSemaphore = semaphore.NewWeighted(f.MaxConcurrentDownload)

	f.httpClient = &http.Client{
		Timeout:   f.RequestTimeout,
		Transport: f.Transport,
	}
}

// ArchiveURL returns the download URL for the given month's archive.
func (f *Fetcher) ArchiveURL(m Month) string {
	return strings.TrimRight(f.BaseURL, "/") + "/" + m.Filename()
}

// LatestMonth resolves the most recent month whose archive is expected to
// be published, applying the configured publication lag.
func (f *Fetcher) LatestMonth() Month {
	return LatestPublished(f.now(), f.PublicationLagDays)
}

// FetchLatest downloads and extracts the archive for the latest published
// month.
func (f *Fetcher) FetchLatest(ctx context.Context) error {
	if !f.isValidated {
		return errNotValidated
	}

	return f.FetchMonth(ctx, f.LatestMonth())
}

// FetchMonth downloads and extracts the archive for one month.
func (f *Fetcher) FetchMonth(ctx context.Context, m Month) error {
	if !f.isValidated {
		return errNotValidated
	}

	if err := f.FetchURL(ctx, f.ArchiveURL(m)); err != nil {
		return errors.Wrapf(err, "month %s", m)
	}
	return nil
}

// FetchURL downloads the archive at the given URL verbatim, saves it under
// the data directory and extracts it. Month resolution is never consulted.
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string) error {
	if !f.isValidated {
		return errNotValidated
	}

	url, err := nurl.ParseRequestURI(rawURL)
	if err != nil || url.Scheme == "" || url.Hostname() == "" {
		return errors.Errorf("url %q is not valid", rawURL)
	}

	if err := os.MkdirAll(f.DataDir, 0755); err != nil {
		return errors.Wrap(err, "create data directory")
	}

	// Use semaphore to limit concurrent downloads
	if err := f.dlSemaphore.Acquire(ctx, 1); err != nil {
		return err
	}
	f.logf("downloading %s\n", rawURL)
	resp, err := f.download(ctx, rawURL)
	f.dlSemaphore.Release(1)
	if err != nil {
		return errors.Wrapf(err, "download %s", rawURL)
	}
	defer resp.Body.Close()

	zipPath, err := f.saveArchive(archiveName(url), resp.Body)
	if err != nil {
		return errors.Wrapf(err, "save %s", rawURL)
	}
	f.verbosef("saved %s\n", zipPath)

	if err := f.extract(zipPath); err != nil {
		return errors.Wrapf(err, "extract %s", zipPath)
	}

	if !f.KeepZip {
		if err := os.Remove(zipPath); err != nil {
			return errors.Wrapf(err, "remove %s", zipPath)
		}
		f.verbosef("removed %s\n", zipPath)
	}

	f.logf("finished %s\n", rawURL)
	return nil
}

// Backfill fetches every month from StartMonth through the latest published
// month, inclusive. Individual failures are reported but do not stop the
// run; the returned error summarizes which months failed.
func (f *Fetcher) Backfill(ctx context.Context) error {
	if !f.isValidated {
		return errNotValidated
	}

	latest := f.LatestMonth()
	months := MonthsBetween(f.StartMonth, latest)
	if len(months) == 0 {
		return errors.Errorf("no months published since %s", f.StartMonth)
	}

	f.logf("backfill from %s to %s, %d months\n", f.StartMonth, latest, len(months))

	var (
		mu     sync.Mutex
		failed []string
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, m := range months {
		m := m
		g.Go(func() error {
			if err := f.FetchMonth(ctx, m); err != nil {
				f.warnf("fetch failed for %s: %v\n", m, err)
				mu.Lock()
				failed = append(failed, m.String())
				mu.Unlock()
			}
			return nil
		})
	}
	// Workers never return errors, failures are collected above
	_ = g.Wait()

	if len(failed) > 0 {
		sort.Strings(failed)
		return errors.Errorf("backfill: %d of %d months failed: %s",
			len(failed), len(months), strings.Join(failed, ", "))
	}
	return nil
}

// FetchURLs downloads each archive URL best-effort, like Backfill.
func (f *Fetcher) FetchURLs(ctx context.Context, urls []string) error {
	if !f.isValidated {
		return errNotValidated
	}

	if len(urls) == 0 {
		return errors.New("no url to process")
	}

	var (
		mu     sync.Mutex
		failed []string
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, rawURL := range urls {
		rawURL := rawURL
		g.Go(func() error {
			if err := f.FetchURL(ctx, rawURL); err != nil {
				f.warnf("fetch failed for %s: %v\n", rawURL, err)
				mu.Lock()
				failed = append(failed, rawURL)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		sort.Strings(failed)
		return errors.Errorf("%d of %d downloads failed: %s",
			len(failed), len(urls), strings.Join(failed, ", "))
	}
	return nil
}
