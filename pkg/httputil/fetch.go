package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/ctabridge/pkg/errors"
	"github.com/matzehuels/ctabridge/pkg/observability"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of a response body is read. Larger bodies fail.
const maxBodySize = 16 << 20

// Fetcher retrieves the body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// HTTPFetcher performs GET requests with net/http.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewHTTPFetcher creates a fetcher. A zero timeout uses DefaultTimeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBody:   maxBodySize,
	}
}

// Fetch implements Fetcher. Every failure is NETWORK_ERROR.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "build request")
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	host, path := target(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		wrapped := errors.Wrap(errors.ErrCodeNetwork, err, "GET %s%s", host, path)
		if ctx.Err() != nil {
			return nil, wrapped
		}
		return nil, &RetryableError{Err: wrapped}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, host, path); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read %s%s", host, path)}
	}
	if int64(len(body)) > f.maxBody {
		err := errors.New(errors.ErrCodeNetwork, "GET %s%s: response too large (over %d bytes)", host, path, f.maxBody)
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, err
	}
	return body, nil
}

func checkStatus(code int, host, path string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "GET %s%s: status %d", host, path, code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "GET %s%s: status %d", host, path, code)
	}
}

// target returns host and path for hooks and messages. The query is left
// out because it carries API keys.
func target(u *url.URL) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.EscapedPath()
}

// String describes the fetcher for debug output.
func (f *HTTPFetcher) String() string {
	return fmt.Sprintf("http(timeout=%s)", f.client.Timeout)
}
