package studio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// FetcherConfig bounds remote imports.
type FetcherConfig struct {
	Timeout       time.Duration
	MaxRetries    int
	MaxConcurrent int
	MaxBytes      int64
}

func (c FetcherConfig) withDefaults() FetcherConfig {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 32 << 20
	}
	return c
}

// Fetcher downloads remote audio files for import. Concurrency is bounded
// by a semaphore; transient failures retry with resty's backoff.
type Fetcher struct {
	client    *resty.Client
	semaphore chan struct{}
	maxBytes  int64
	logger    *slog.Logger
}

// NewFetcher creates a bounded remote fetcher.
func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Fetcher{
		client:    client,
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
		maxBytes:  cfg.MaxBytes,
		logger:    logger,
	}
}

// Fetch downloads the file at url and returns its bytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	select {
	case f.semaphore <- struct{}{}:
		defer func() { <-f.semaphore }()
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch cancelled while waiting for slot: %w", ctx.Err())
	}

	start := time.Now()
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode())
	}

	body := resp.Body()
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("fetched file %s exceeds %d byte limit (%d bytes)", url, f.maxBytes, len(body))
	}

	f.logger.Debug("fetched remote file",
		slog.String("url", url),
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", time.Since(start)))
	return body, nil
}
