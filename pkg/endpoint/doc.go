// Package endpoint holds the static tables of CTA services and endpoints.
//
// A [Registry] maps a [Domain] and an endpoint key to a [Descriptor]. Lookup
// is an exact two-level match; there is no fuzzy matching and no default
// endpoint. Registries are immutable: [Registry.WithBaseURL] returns a copy.
//
//	reg := endpoint.Default()
//	d, err := reg.Resolve(endpoint.Bus, "predictions")
//	// d.URL() == "http://www.ctabustracker.com/bustime/api/v1/getpredictions"
//
// The package also carries the train line table used to cross-reference
// line identifiers between the alerts feed and the open-data stops feed.
package endpoint
