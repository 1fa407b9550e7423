// Package httpclient fetches upstream feeds with retries and per-customer auth.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/deksa89/argo-connectors/internal/config"
	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/logger"
	"github.com/deksa89/argo-connectors/internal/version"
)

// MaxResponseSize caps a single response body (256MB).
const MaxResponseSize = 256 << 20

// Client is the fetch capability used by the parsers and the orchestrator.
type Client interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Options controls timeouts, retries and auth of a DefaultClient.
type Options struct {
	Timeout        time.Duration // per attempt
	Retries        int           // attempts per request
	SleepRetry     time.Duration // wait between attempts
	RandomSleep    bool
	SleepRandomMax time.Duration
	Auth           config.Auth
}

// OptionsFromConfig builds client options from process settings and a job's auth.
func OptionsFromConfig(cfg *config.Config, auth config.Auth) Options {
	return Options{
		Timeout:        cfg.ConnTimeout,
		Retries:        cfg.ConnRetry,
		SleepRetry:     cfg.ConnSleepRetry,
		RandomSleep:    cfg.ConnRetryRandom,
		SleepRandomMax: cfg.ConnSleepRandomMax,
		Auth:           auth,
	}
}

type DefaultClient struct {
	client *http.Client
	opts   Options
	log    logger.Logger
}

func New(opts Options, log logger.Logger) (*DefaultClient, error) {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	hc, err := buildHTTPClient(opts.Auth, opts.Timeout)
	if err != nil {
		return nil, err
	}
	return &DefaultClient{client: hc, opts: opts, log: log}, nil
}

func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, url, nil, nil)
}

// Do performs one logical request, retrying transient failures. HTTP 4xx
// answers other than 408/429 are not retried. Every failure is returned as
// *domain.TransportError.
func (c *DefaultClient) Do(ctx context.Context, method, url string, body []byte, header http.Header) ([]byte, error) {
	op := func() ([]byte, error) {
		data, err := c.once(ctx, method, url, body, header)
		if err == nil {
			return data, nil
		}
		var he *HTTPError
		if errors.As(err, &he) && !he.Temporary() {
			return nil, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxTries(uint(c.opts.Retries)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Warn("request failed, retrying",
				logger.String("method", method),
				logger.String("url", url),
				logger.Duration("next_retry_in", next),
				logger.Error(err))
		}),
	)
	if err != nil {
		return nil, &domain.TransportError{URL: url, Err: err}
	}
	return data, nil
}

func (c *DefaultClient) once(ctx context.Context, method, url string, body []byte, header http.Header) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}
	authorize(req, c.opts.Auth)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		text := resp.Status
		if len(msg) > 0 {
			text = resp.Status + ": " + string(bytes.TrimSpace(msg))
		}
		return nil, NewHTTPError(resp.StatusCode, url, text)
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("response size %d bytes exceeds maximum of %d bytes", resp.ContentLength, MaxResponseSize))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("response exceeds maximum of %d bytes", MaxResponseSize))
	}
	return data, nil
}

func (c *DefaultClient) backOff() backoff.BackOff {
	b := sleepBackOff{base: c.opts.SleepRetry}
	if c.opts.RandomSleep {
		b.jitter = c.opts.SleepRandomMax
	}
	return b
}

// sleepBackOff waits a fixed interval plus up to jitter extra between attempts.
type sleepBackOff struct {
	base   time.Duration
	jitter time.Duration
}

func (b sleepBackOff) NextBackOff() time.Duration {
	if b.jitter <= 0 {
		return b.base
	}
	return b.base + rand.N(b.jitter)
}

func (sleepBackOff) Reset() {}
