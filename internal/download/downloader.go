// Package download fetches a single resource from a URL and stores it at a
// target path. Supported schemes are http, https, ftp and file. The body is
// written through a temporary file, so a failed transfer never leaves a
// truncated target behind.
package download

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"bootstrap/internal/config"
	"bootstrap/internal/errors"
	"bootstrap/internal/fsx"
	"bootstrap/internal/log"
)

const (
	userAgent   = "bootstrap/1.0"
	targetMode  = 0o644
	dialTimeout = 30 * time.Second
)

// Result describes a completed download.
type Result struct {
	URL    string
	Target string
	Bytes  int64
}

// Downloader dispatches a URL to the Fetcher registered for its scheme.
type Downloader struct {
	config   *config.Config
	reporter log.Reporter
	fetchers map[string]Fetcher
}

// NewDownloader creates a Downloader with the default fetchers.
func NewDownloader(cfg *config.Config, reporter log.Reporter) *Downloader {
	httpFetcher := &HTTPFetcher{
		Client:    &http.Client{},
		UserAgent: userAgent,
	}

	return &Downloader{
		config:   cfg,
		reporter: reporter,
		fetchers: map[string]Fetcher{
			"http":  httpFetcher,
			"https": httpFetcher,
			"ftp":   &FTPFetcher{DialTimeout: dialTimeout},
			"file":  FileFetcher{},
		},
	}
}

// Register installs f for scheme, replacing any existing fetcher.
func (d *Downloader) Register(scheme string, f Fetcher) {
	d.fetchers[strings.ToLower(scheme)] = f
}

// Download fetches rawURL and writes the full body to target, replacing any
// existing file. Missing parent directories of target are created.
func (d *Downloader) Download(ctx context.Context, rawURL, target string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.NewUsageError("invalid url "+rawURL, err)
	}

	fetcher, ok := d.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, errors.NewUsageError("unsupported url scheme \""+u.Scheme+"\"", nil)
	}

	absTarget, err := config.AbsPath(target)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(absTarget); err == nil && info.IsDir() {
		return nil, errors.NewFileError(absTarget, "target is a directory", nil)
	}

	d.reporter.Report(log.Event{Kind: log.EventDownloadStarted, URL: u.Redacted(), Target: absTarget})

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	body, err := fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	src := &trackingReader{r: body}
	n, err := fsx.WriteAtomic(absTarget, src, targetMode)
	if err != nil {
		if src.err != nil {
			return nil, errors.NewNetworkError(u.Redacted(), "transfer interrupted", src.err)
		}
		return nil, errors.WrapFileError(absTarget, err)
	}

	result := &Result{URL: u.Redacted(), Target: absTarget, Bytes: n}
	d.reporter.Report(log.Event{
		Kind:   log.EventDownloadFinished,
		URL:    result.URL,
		Target: result.Target,
		Bytes:  result.Bytes,
	})
	return result, nil
}

// trackingReader remembers the first read error so transfer failures can be
// told apart from write failures.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}
