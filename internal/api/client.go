package api

import (
	"clanwatch/internal/providers"
	"clanwatch/internal/structures"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

const maxErrorBody = 4 << 10

// TransportError is a non-2xx response that the caller did not opt to tolerate.
type TransportError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("API %d: %s %s", e.StatusCode, e.URL, e.Body)
}

type FetchOptions struct {
	// Endpoint labels the request in logs and metrics.
	Endpoint string
	// AllowNotFound turns a 404 into found=false instead of an error.
	AllowNotFound bool
}

type Fetcher interface {
	Fetch(ctx context.Context, path string, opts FetchOptions, out any) (bool, error)
}

// RateLimitedClient serializes every request through one nextAvailable
// instant. A request waits until nextAvailable, and once its response
// arrives nextAvailable moves to now+minInterval.
type RateLimitedClient struct {
	mu            sync.Mutex
	baseURL       string
	userAgent     string
	minInterval   time.Duration
	nextAvailable time.Time
	httpClient    *http.Client
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
	logger        providers.Logger
	metrics       providers.MetricsProviderInterface
}

// MinInterval is ceil(60000/perMinute) milliseconds plus slack.
func MinInterval(perMinute int, slack time.Duration) time.Duration {
	perMinute = max(perMinute, 1)
	ms := (60000 + perMinute - 1) / perMinute
	return time.Duration(ms)*time.Millisecond + slack
}

func NewRateLimitedClient(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *RateLimitedClient {
	timeout := conf.Api.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RateLimitedClient{
		baseURL:       conf.Api.BaseURL,
		userAgent:     conf.Api.UserAgent,
		minInterval:   MinInterval(conf.Clan.RateLimitPerMinute, conf.Api.Slack),
		nextAvailable: time.Now(),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		now:     time.Now,
		sleep:   sleepContext,
		logger:  logger,
		metrics: metrics,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *RateLimitedClient) MinInterval() time.Duration {
	return c.minInterval
}

// Fetch GETs baseURL+path and decodes the JSON body into out (when non-nil).
// It returns false without error only for a tolerated 404.
func (c *RateLimitedClient) Fetch(ctx context.Context, path string, opts FetchOptions, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := c.nextAvailable.Sub(c.now()); wait > 0 {
		c.metrics.ObserveRateLimitWait(wait)
		if err := c.sleep(ctx, wait); err != nil {
			return false, err
		}
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build request %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debugf(providers.TypeUpstream, "GET %s", url)
	resp, err := c.httpClient.Do(req)
	c.nextAvailable = c.now().Add(c.minInterval)
	if err != nil {
		return false, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	c.metrics.IncUpstreamRequests(opts.Endpoint, resp.StatusCode)

	if opts.AllowNotFound && resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Debugf(providers.TypeUpstream, "GET %s: not found, treated as empty", url)
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return false, &TransportError{StatusCode: resp.StatusCode, URL: url, Body: string(body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s: %w", url, err)
	}
	return true, nil
}
