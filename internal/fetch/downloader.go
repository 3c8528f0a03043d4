package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
)

// Config holds downloader configuration
type Config struct {
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration
}

// DefaultConfig returns the default download policy
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Backoff:     200 * time.Millisecond,
		Timeout:     5 * time.Second,
	}
}

// Downloader fetches audio content over HTTP with retry
type Downloader struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewDownloader creates a new downloader
func NewDownloader(cfg Config, logger *zap.Logger) *Downloader {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}

	return &Downloader{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Fetch downloads the URL, retrying transient failures with exponential
// backoff. Permanent failures (non-429 4xx) are not retried.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		body, err := d.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}

		lastErr = err

		if perm, ok := err.(*permanentError); ok {
			d.logger.Info("Permanent download failure, not retrying",
				zap.String("url", url),
				zap.Int("status", perm.status))
			return nil, err
		}

		if attempt < d.config.MaxAttempts {
			backoff := d.config.Backoff * time.Duration(1<<uint(attempt-1))
			d.logger.Warn("Download failed, retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("download failed after %d attempts: %w", d.config.MaxAttempts, lastErr)
}

func (d *Downloader) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("invalid url %s: %w", url, err)}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, &permanentError{err: err, status: resp.StatusCode}
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// permanentError marks a failure that retrying cannot fix
type permanentError struct {
	err    error
	status int
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Verify interface compliance
var _ port.AudioFetcher = (*Downloader)(nil)
