// Package csvsync downloads historical CSV files into the local data
// directory read by the history loader.
package csvsync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/XavierBriggs/Augur/pkg/contracts"
)

const userAgent = "Augur/1.0 (CSV sync)"

// Config configures the downloader
type Config struct {
	DataDir         string
	RequestsPerSec  float64       // Defaults to 1
	MaxRetryTimeout time.Duration // Defaults to 2 minutes
	InitialInterval time.Duration // First retry delay, defaults to 500ms
	Timeout         time.Duration // Per request, defaults to 30s
	HTTPClient      *http.Client
}

// Result summarises one sync run
type Result struct {
	Downloaded int
	Failed     int
	Bytes      int64
}

// Downloader fetches sources with pacing and retries
type Downloader struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewDownloader creates a downloader with defaults filled in
func NewDownloader(cfg Config) *Downloader {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 1
	}
	if cfg.MaxRetryTimeout <= 0 {
		cfg.MaxRetryTimeout = 2 * time.Minute
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Downloader{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		logger:  log.With().Str("component", "csvsync").Logger(),
	}
}

// Sync downloads every source sequentially. A failed file is logged and the
// run continues; only context cancellation stops it early.
func (d *Downloader) Sync(ctx context.Context, sources []Source) (Result, error) {
	var res Result
	start := time.Now()

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if src.URL == "" {
			continue
		}

		n, err := d.Download(ctx, src)
		if err != nil {
			res.Failed++
			d.logger.Error().
				Err(err).
				Str("url", src.URL).
				Str("category", src.Category).
				Msg("download failed")
			continue
		}
		res.Downloaded++
		res.Bytes += n
	}

	d.logger.Info().
		Int("downloaded", res.Downloaded).
		Int("failed", res.Failed).
		Int64("bytes", res.Bytes).
		Dur("duration", time.Since(start)).
		Msg("csv sync finished")

	return res, nil
}

// Download fetches one source into <DataDir>/<category>/<local name>
func (d *Downloader) Download(ctx context.Context, src Source) (int64, error) {
	dir := filepath.Join(d.cfg.DataDir, src.Category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "create %s", dir)
	}
	dest := filepath.Join(dir, src.LocalName())

	var body []byte
	operation := func() error {
		if err := d.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		b, err := d.fetch(ctx, src.URL)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.InitialInterval = d.cfg.InitialInterval
	backoffStrategy.MaxElapsedTime = d.cfg.MaxRetryTimeout

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return 0, err
	}

	if err := writeAtomic(dest, body); err != nil {
		return 0, err
	}

	d.logger.Info().Str("file", dest).Int("bytes", len(body)).Msg("downloaded")
	return int64(len(body)), nil
}

// fetch performs one GET. 4xx responses other than 429 and empty bodies are
// permanent failures.
func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(errors.Wrap(err, "create request"))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "execute request"), contracts.ErrTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := errors.Mark(&HTTPStatusError{StatusCode: resp.StatusCode}, contracts.ErrTransport)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read body"), contracts.ErrTransport)
	}
	if len(body) == 0 {
		return nil, backoff.Permanent(errors.Mark(errors.New("empty response body"), contracts.ErrMalformed))
	}
	return body, nil
}

// writeAtomic writes to a temp file in the same directory and renames it
// over dest, so readers never see a partial file
func writeAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".csvsync-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return errors.Wrapf(err, "rename to %s", dest)
	}
	return nil
}

// HTTPStatusError represents a non-200 response
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-200 status code: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
