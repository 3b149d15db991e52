// Package httputil provides the HTTP plumbing used to reach the upstream
// transit APIs.
//
// # Overview
//
//   - [Fetcher]: fetch a URL and return the body
//   - [HTTPFetcher]: the net/http implementation with timeout and cancellation
//   - [Retry]: caller-side retry with exponential backoff
//
// # Fetching
//
// [HTTPFetcher] classifies failures as NETWORK_ERROR. Transport failures,
// 429 and 5xx responses are additionally wrapped in [RetryableError]; other
// non-2xx statuses are not:
//
//	f := httputil.NewHTTPFetcher(10*time.Second, "ctabridge/1.0")
//	body, err := f.Fetch(ctx, "http://lapi.transitchicago.com/api/1.0/ttarrivals.aspx?mapid=40380&key=...")
//
// # Retry
//
// The dispatcher never retries. Callers that want retries wrap the whole
// call:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    tree, err = client.Train(ctx, "arrivals", params)
//	    return err
//	})
//
// Only errors wrapped with [RetryableError] trigger another attempt.
package httputil
