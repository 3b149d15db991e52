// Package cta is the entry point for calling the Chicago Transit Authority
// APIs.
//
// A [Client] turns a domain, an endpoint key and typed parameters into a
// request URL, answers from the cache when it can, and otherwise fetches,
// normalizes and caches the response:
//
//	client := cta.New(cta.Keys{Train: trainKey, Bus: busKey},
//	    cta.WithCache(cache.New(store)),
//	)
//	tree, err := client.Train(ctx, "arrivals",
//	    query.NewParams().Set("mapid", query.Int(40380)).Set("max", query.Int(5)))
//
// Every call runs the same steps:
//
//  1. Resolve the endpoint (UNKNOWN_ENDPOINT, nothing is fetched)
//  2. Check and inject the API key (MISSING_API_KEY, no URL is built)
//  3. Build the URL from base URL, path and query string
//  4. Return the cached tree if the URL was fetched within the last minute
//  5. Otherwise fetch, normalize, store and return the tree
//
// Failures from fetching, parsing or the cache are returned unchanged. The
// client never retries; wrap calls in [httputil.Retry] for that.
package cta
