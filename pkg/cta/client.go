package cta

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/ctabridge/pkg/buildinfo"
	"github.com/matzehuels/ctabridge/pkg/cache"
	"github.com/matzehuels/ctabridge/pkg/endpoint"
	"github.com/matzehuels/ctabridge/pkg/errors"
	"github.com/matzehuels/ctabridge/pkg/httputil"
	"github.com/matzehuels/ctabridge/pkg/normalize"
	"github.com/matzehuels/ctabridge/pkg/observability"
	"github.com/matzehuels/ctabridge/pkg/query"
)

// Keys holds the API keys. Empty means not configured; a missing required
// key is reported when a call needs it, not at construction.
type Keys struct {
	Train      string
	Bus        string
	TrainStops string // Optional Socrata app token
}

// For returns the key configured for domain.
func (k Keys) For(domain endpoint.Domain) string {
	switch domain {
	case endpoint.Train:
		return k.Train
	case endpoint.Bus:
		return k.Bus
	case endpoint.TrainStops:
		return k.TrainStops
	default:
		return ""
	}
}

// Client dispatches domain calls. It is safe for concurrent use.
type Client struct {
	registry *endpoint.Registry
	keys     Keys
	cache    *cache.Cache
	fetcher  httputil.Fetcher
	logger   *log.Logger
	timeout  time.Duration
	flights  singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithRegistry replaces the default endpoint registry.
func WithRegistry(r *endpoint.Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithCache sets the response cache.
func WithCache(cc *cache.Cache) Option {
	return func(c *Client) { c.cache = cc }
}

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f httputil.Fetcher) Option {
	return func(c *Client) { c.fetcher = f }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithFetchTimeout bounds a shared upstream fetch. The fetch outlives the
// caller that started it, so it is not cancelled with that caller's context.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client. Without options it uses the public endpoints, an
// in-memory cache and an HTTP fetcher with the default timeout.
func New(keys Keys, opts ...Option) *Client {
	c := &Client{keys: keys}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = endpoint.Default()
	}
	if c.cache == nil {
		c.cache = cache.New(cache.NewMemoryStore())
	}
	if c.fetcher == nil {
		c.fetcher = httputil.NewHTTPFetcher(httputil.DefaultTimeout, buildinfo.UserAgent())
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.timeout <= 0 {
		c.timeout = httputil.DefaultTimeout
	}
	return c
}

// Registry returns the endpoint registry in use.
func (c *Client) Registry() *endpoint.Registry { return c.registry }

// Alerts calls an endpoint of the Customer Alerts API.
func (c *Client) Alerts(ctx context.Context, endpointKey string, params *query.Params) (normalize.Tree, error) {
	return c.Call(ctx, endpoint.Alerts, endpointKey, params)
}

// Bus calls an endpoint of the Bus Tracker API.
func (c *Client) Bus(ctx context.Context, endpointKey string, params *query.Params) (normalize.Tree, error) {
	return c.Call(ctx, endpoint.Bus, endpointKey, params)
}

// Train calls an endpoint of the Train Tracker API.
func (c *Client) Train(ctx context.Context, endpointKey string, params *query.Params) (normalize.Tree, error) {
	return c.Call(ctx, endpoint.Train, endpointKey, params)
}

// TrainStops queries the "L" stops open-data feed.
func (c *Client) TrainStops(ctx context.Context, params *query.Params) (normalize.Tree, error) {
	return c.Call(ctx, endpoint.TrainStops, endpoint.StopsEndpoint, params)
}

// Call dispatches a call to any registered domain and endpoint. params is
// never modified.
func (c *Client) Call(ctx context.Context, domain endpoint.Domain, endpointKey string, params *query.Params) (normalize.Tree, error) {
	hooks := observability.Dispatch()
	hooks.OnCallStart(ctx, string(domain), endpointKey)
	start := time.Now()

	tree, cached, err := c.call(ctx, domain, endpointKey, params)

	hooks.OnCallComplete(ctx, string(domain), endpointKey, cached, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("call", "domain", domain, "endpoint", endpointKey, "cached", cached, "took", time.Since(start).Round(time.Millisecond))
	return tree, nil
}

// URL returns the request URL a call would use, without touching the cache
// or the network. The URL includes the API key.
func (c *Client) URL(domain endpoint.Domain, endpointKey string, params *query.Params) (string, error) {
	url, _, err := c.prepare(domain, endpointKey, params)
	return url, err
}

func (c *Client) call(ctx context.Context, domain endpoint.Domain, endpointKey string, params *query.Params) (normalize.Tree, bool, error) {
	url, d, err := c.prepare(domain, endpointKey, params)
	if err != nil {
		return nil, false, err
	}

	payload, hit, err := c.cache.Get(ctx, url)
	if err != nil {
		return nil, false, err
	}
	if hit {
		tree, err := normalize.Unmarshal(payload)
		return tree, true, err
	}

	tree, err := c.fetch(ctx, url, d.Service.Format)
	return tree, false, err
}

// prepare runs validation, key injection and URL building.
func (c *Client) prepare(domain endpoint.Domain, endpointKey string, params *query.Params) (string, endpoint.Descriptor, error) {
	d, err := c.registry.Resolve(domain, endpointKey)
	if err != nil {
		return "", endpoint.Descriptor{}, err
	}

	p := params.Clone()
	if param := d.Service.KeyParam; param != "" {
		key := c.keys.For(domain)
		if key == "" && d.RequiresAPIKey {
			return "", endpoint.Descriptor{}, errors.New(errors.ErrCodeMissingAPIKey, "no API key configured for %s", domain)
		}
		if key != "" {
			p.Set(param, query.Text(key))
		}
	}

	return d.URL() + query.Build(p), d, nil
}

type flightResult struct {
	tree    normalize.Tree
	payload string
}

// fetch retrieves, normalizes and stores url. Concurrent misses for the same
// URL share one upstream request; each caller gets its own copy of the tree.
// The shared request runs detached from every caller's cancellation and is
// bounded by the fetch timeout instead; a caller whose context ends stops
// waiting without failing the others.
func (c *Client) fetch(ctx context.Context, url string, format normalize.Format) (normalize.Tree, error) {
	ch := c.flights.DoChan(url, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		body, err := c.fetcher.Fetch(fctx, url)
		if err != nil {
			return nil, err
		}
		normalizeFn, err := normalize.ForFormat(format)
		if err != nil {
			return nil, err
		}
		tree, err := normalizeFn(body)
		if err != nil {
			return nil, err
		}
		payload, err := normalize.Marshal(tree)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(fctx, url, payload); err != nil {
			return nil, err
		}
		return flightResult{tree: tree, payload: payload}, nil
	})

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrCodeNetwork, ctx.Err(), "waiting for upstream response")
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		res := r.Val.(flightResult)
		if r.Shared {
			return normalize.Unmarshal(res.payload)
		}
		return res.tree, nil
	}
}
