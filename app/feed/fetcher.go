package feed

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/lysyi3m/glp1-survey/app/cache"
)

type FetcherOptions struct {
	UserAgent    string
	RequestDelay time.Duration // minimum spacing between outgoing requests
	Retries      int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	Cache        cache.Cache
	CacheTTL     time.Duration
}

// Fetcher performs GET requests for every source. Requests share one
// politeness limiter, and successful bodies are cached by URL.
type Fetcher struct {
	client   *resty.Client
	limiter  *rate.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	client := resty.New().
		SetHeader("User-Agent", opts.UserAgent).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryMaxWait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := resp.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RequestDelay), 1)
	}

	return &Fetcher{
		client:   client,
		limiter:  limiter,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
	}
}

// Get fetches rawURL with optional query parameters. Non-2xx responses fail
// with *HTTPStatusError.
func (f *Fetcher) Get(ctx context.Context, rawURL string, query map[string]string, timeout time.Duration) ([]byte, error) {
	fullURL := withQuery(rawURL, query)
	key := cache.Key("resp", fullURL)

	if f.cache != nil && f.cacheTTL > 0 {
		if data, ok, err := f.cache.Get(ctx, key); err != nil {
			slog.Warn("Cache read failed", "url", fullURL, "error", err)
		} else if ok {
			slog.Debug("Cache hit", "url", fullURL)
			return data, nil
		}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := f.client.R().
		SetContext(ctx).
		Get(fullURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &HTTPStatusError{URL: fullURL, StatusCode: resp.StatusCode()}
	}

	data := resp.Body()

	if f.cache != nil && f.cacheTTL > 0 {
		if err := f.cache.Set(ctx, key, data, f.cacheTTL); err != nil {
			slog.Warn("Cache write failed", "url", fullURL, "error", err)
		}
	}

	return data, nil
}

func withQuery(rawURL string, query map[string]string) string {
	if len(query) == 0 {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
