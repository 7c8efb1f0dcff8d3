// Package fetch downloads provider pages and reduces them to the text a
// model needs to find a plan: pricing tables, plan carousels and plan cards
// first, the readable article or the visible body otherwise.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultRetries   = 3
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	maxRetryWait     = 30 * time.Second
)

// Config controls optional overrides for the fetcher.
type Config struct {
	Timeout      time.Duration
	Retries      int
	RetryWait    time.Duration
	UserAgent    string
	MaxTextBytes int
}

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	http    *resty.Client
	maxText int
}

// New builds a fetcher with sane defaults.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = defaultRetries
	}
	wait := cfg.RetryWait
	if wait <= 0 {
		wait = time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetRetryCount(retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(maxRetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return shouldRetry(r.StatusCode())
		})

	return &Fetcher{http: client, maxText: cfg.MaxTextBytes}
}

// Fetch downloads rawURL and extracts its plan content.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if f == nil || f.http == nil {
		return nil, fmt.Errorf("fetch: fetcher is nil")
	}
	if rawURL == "" {
		return nil, fmt.Errorf("fetch: url is empty")
	}
	resp, err := f.http.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: GET %s: %w", rawURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch: GET %s: received status code %d", rawURL, resp.StatusCode())
	}
	return Extract(rawURL, resp.String(), f.maxText)
}

func shouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
