package xcontest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"

	"github.com/dpup/xctsk-viewer/server/internal/cache"
	"github.com/dpup/xctsk-viewer/server/internal/config"
)

var (
	// ErrTaskNotFound is returned when the service has no task for a code
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidCode is returned for codes that cannot name a task
	ErrInvalidCode = errors.New("invalid task code")

	// ErrDocumentTooLarge is returned when the service sends more than
	// maxDocumentSize bytes
	ErrDocumentTooLarge = errors.New("task document too large")
)

// Largest task document accepted from the service
const maxDocumentSize = 1 << 20

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// HTTPDoer is the subset of http.Client used by Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches task documents by code from the XContest task service.
// Documents are cached and concurrent fetches of one code share a request.
type Client struct {
	baseURL       string
	version       int
	attempts      int
	ttl           time.Duration
	fetchTimeout  time.Duration
	retryInterval time.Duration
	httpClient    HTTPDoer
	cache         *cache.Cache
	group         singleflight.Group
	logger        *slog.Logger
}

// NewClient creates a new XContest client
func NewClient(cfg *config.XContestConfig, c *cache.Cache) *Client {
	return NewClientWithHTTPDoer(cfg, c, &http.Client{Timeout: cfg.Timeout})
}

// NewClientWithHTTPDoer creates a client using the given HTTP implementation
func NewClientWithHTTPDoer(cfg *config.XContestConfig, c *cache.Cache, doer HTTPDoer) *Client {
	if c == nil {
		c = cache.NewCache()
	}
	attempts := cfg.RetryCount
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		version:       cfg.APIVersion,
		attempts:      attempts,
		ttl:           cfg.CacheTTL,
		fetchTimeout:  time.Duration(attempts) * cfg.Timeout,
		retryInterval: 500 * time.Millisecond,
		httpClient:    doer,
		cache:         c,
		logger:        slog.Default(),
	}
}

// TaskURL returns the service URL of the document for a code
func (c *Client) TaskURL(code string) string {
	endpoint := "load"
	if c.version == 2 {
		endpoint = "loadV2"
	}
	return fmt.Sprintf("%s/api/xctsk/%s/%s", c.baseURL, endpoint, url.PathEscape(code))
}

// FetchTask returns the raw task document for a code
func (c *Client) FetchTask(ctx context.Context, code string) ([]byte, error) {
	return c.load(ctx, code, true)
}

// RefreshTask fetches a task document from the service even when a fresh
// copy is cached, and caches the result
func (c *Client) RefreshTask(ctx context.Context, code string) ([]byte, error) {
	return c.load(ctx, code, false)
}

func (c *Client) load(ctx context.Context, code string, useCache bool) ([]byte, error) {
	if !codePattern.MatchString(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	if useCache {
		if doc, ok := c.cache.GetTaskDocument(code, c.version); ok {
			return doc, nil
		}
	}

	// The shared fetch ignores caller cancellation; each caller waits on its own ctx
	ch := c.group.DoChan(code, func() (any, error) {
		if useCache {
			if doc, ok := c.cache.GetTaskDocument(code, c.version); ok {
				return doc, nil
			}
		}

		fetchCtx := context.WithoutCancel(ctx)
		if c.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.fetchTimeout)
			defer cancel()
		}

		doc, err := c.fetch(fetchCtx, code)
		if err != nil {
			if !errors.Is(err, ErrTaskNotFound) {
				if stale, ok := c.cache.GetStaleTaskDocument(code, c.version); ok {
					c.logger.Warn("Task fetch failed, serving stale copy", "code", code, "error", err)
					return stale, nil
				}
			}
			return nil, err
		}

		c.cache.SetTaskDocument(code, c.version, doc, c.ttl)
		return doc, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("Shared in-flight task fetch", "code", code)
		}
		return res.Val.([]byte), nil
	}
}

// fetch requests a document, retrying rate limits, server errors and
// transport failures with exponential backoff
func (c *Client) fetch(ctx context.Context, code string) ([]byte, error) {
	taskURL := c.TaskURL(code)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	doc, err := backoff.Retry(ctx, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, taskURL, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrTaskNotFound, code))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("xcontest returned %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, backoff.Permanent(fmt.Errorf("xcontest error %d: %s", resp.StatusCode, string(body)))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if len(body) > maxDocumentSize {
			return nil, backoff.Permanent(fmt.Errorf("%w: %s exceeds %d bytes", ErrDocumentTooLarge, code, maxDocumentSize))
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, backoff.Permanent(fmt.Errorf("%w: empty document for %s", ErrTaskNotFound, code))
		}
		return body, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(c.attempts)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task %s: %w", code, err)
	}
	return doc, nil
}
