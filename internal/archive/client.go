// Package archive drives block-range acquisition against a sharded,
// block-range-partitioned archive service: a directory endpoint maps block
// numbers to worker URLs, each worker answers a filter document with a
// bounded chunk of per-block records.
package archive

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	customLog "github.com/archivedive/dive/internal/log"
	"github.com/archivedive/dive/internal/metrics"
)

// Default configuration values.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRetries     = 5
	DefaultRetryBaseDelay = 100 * time.Millisecond
)

// Filter is the caller-provided filter document. The client treats it as
// opaque apart from injecting the fromBlock cursor before each request.
type Filter map[string]any

// withFromBlock returns a shallow copy of the filter with the cursor set,
// leaving the caller's document untouched.
func (f Filter) withFromBlock(fromBlock uint64) Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out["fromBlock"] = fromBlock
	return out
}

// Config holds client settings.
type Config struct {
	// BaseURL is the archive directory endpoint.
	BaseURL string

	// RequestTimeout bounds individual HTTP requests.
	RequestTimeout time.Duration

	// MaxRetries is the retry ceiling per chunk position.
	MaxRetries int

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration
}

// WithDefaults applies default values for any unset fields.
func (c Config) WithDefaults() Config {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}
	return c
}

// Client talks to the archive directory and its workers.
type Client struct {
	http     *resty.Client
	cfg      Config
	governor *Governor
	logger   zerolog.Logger

	// onChunk, when set, observes every successfully fetched chunk.
	onChunk func(fromBlock, nextBlock uint64, records int)

	// sleep is context-aware backoff sleeping, replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

type ClientOption func(*Client)

// WithGovernor attaches a concurrency/rate governor. Without one the client
// fetches unthrottled.
func WithGovernor(g *Governor) ClientOption {
	return func(c *Client) {
		c.governor = g
	}
}

// WithChunkCallback registers an observer for fetched chunks, e.g. progress
// reporting.
func WithChunkCallback(fn func(fromBlock, nextBlock uint64, records int)) ClientOption {
	return func(c *Client) {
		c.onChunk = fn
	}
}

func NewClient(cfg Config, opts ...ClientOption) *Client {
	cfg = cfg.WithDefaults()
	client := &Client{
		http:   resty.New().SetTimeout(cfg.RequestTimeout),
		cfg:    cfg,
		logger: customLog.NewLogger("archive"),
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Height returns the current max indexed block of the archive.
func (c *Client) Height(ctx context.Context) (uint64, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.cfg.BaseURL + "/height")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("%w: height returned status %d", ErrUpstreamUnavailable, resp.StatusCode())
	}
	height, err := strconv.ParseUint(strings.TrimSpace(resp.String()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: height body %q is not an integer", ErrUpstreamUnavailable, resp.String())
	}
	return height, nil
}

// WorkerURL resolves the worker responsible for the range starting at the
// given block. The worker changes as the cursor advances, so every chunk
// resolves again; no caching happens here.
func (c *Client) WorkerURL(ctx context.Context, block uint64) (string, error) {
	lookup := fmt.Sprintf("%s/%d/worker", c.cfg.BaseURL, block)
	resp, err := c.http.R().SetContext(ctx).Get(lookup)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: worker lookup returned status %d", ErrUpstreamUnavailable, resp.StatusCode())
	}
	workerURL := strings.TrimSpace(resp.String())
	parsed, err := url.ParseRequestURI(workerURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: worker lookup body %q is not a URL", ErrUpstreamUnavailable, workerURL)
	}
	metrics.WorkerResolutions.Inc()
	return workerURL, nil
}
