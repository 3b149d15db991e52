// Package pkg provides the core libraries for ctabridge, a client for the
// Chicago Transit Authority APIs.
//
// # Overview
//
// ctabridge turns calls against four upstream services (Bus Tracker, Train
// Tracker, Customer Alerts and the City of Chicago "L" stops feed) into
// normalized JSON trees, caching every response for 60 seconds. The pkg
// directory is organized as:
//
//  1. [cta] - The dispatcher: the domain call surface and cache-or-fetch flow
//  2. [endpoint] - The endpoint registry and the train line table
//  3. [query] - Query parameter values and deterministic query strings
//  4. [normalize] - XML and JSON payloads to a uniform tree
//  5. [cache] - The shared response cache and its storage backends
//  6. [httputil] - The HTTP fetcher and caller-side retry
//  7. [config] - Layered file and environment configuration
//
// # Architecture
//
// The data flow of a single call:
//
//	Client.Bus(ctx, "predictions", params)
//	         ↓
//	    [endpoint] resolve descriptor, check API key
//	         ↓
//	    [query] build URL (key injected, caller params untouched)
//	         ↓
//	    [cache] lookup by URL ─── hit ──→ decode stored tree
//	         ↓ miss
//	    [httputil] fetch → [normalize] tree → [cache] store
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/ctabridge/pkg/cache"
//	    "github.com/matzehuels/ctabridge/pkg/cta"
//	    "github.com/matzehuels/ctabridge/pkg/query"
//	)
//
//	store, _ := cache.OpenSQLite(ctx, "/tmp/ctabridge.db")
//	client := cta.New(cta.Keys{Bus: busKey}, cta.WithCache(cache.New(store)))
//
//	tree, err := client.Bus(ctx, "predictions",
//	    query.NewParams().Set("stpid", query.Int(456)).Set("rt", query.Int(20)))
//
// # Supporting Packages
//
// [errors] - Coded errors shared by every package, with HTTP status mapping.
//
// [observability] - Hook registry for dispatcher, cache and HTTP events.
//
// [buildinfo] - Version information injected at build time.
//
// [cta]: https://pkg.go.dev/github.com/matzehuels/ctabridge/pkg/cta
// [endpoint]: https://pkg.go.dev/github.com/matzehuels/ctabridge/pkg/endpoint
// [query]: https://pkg.go.dev/github.com/matzehuels/ctabridge/pkg/query
// [normalize]: https://pkg.go.dev/github.com/matzehuels/ctabridge/pkg/normalize
// [cache]: https://pkg.go.dev/github.com/matzehuels/ctabridge/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/ctabridge/pkg/httputil
// [config]: https://pkg.go.dev/github.com/matzehuels/ctabridge/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/ctabridge/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/ctabridge/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/ctabridge/pkg/buildinfo
package pkg
