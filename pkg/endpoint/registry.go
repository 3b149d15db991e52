package endpoint

import (
	"sort"

	"github.com/matzehuels/ctabridge/pkg/errors"
	"github.com/matzehuels/ctabridge/pkg/normalize"
)

// Domain names one upstream API family.
type Domain string

const (
	Alerts     Domain = "alerts"
	Bus        Domain = "bus"
	Train      Domain = "train"
	TrainStops Domain = "trainStops"
)

// StopsEndpoint is the single endpoint key of the TrainStops domain.
const StopsEndpoint = "stops"

// AllDomains lists every domain in display order.
var AllDomains = []Domain{Alerts, Bus, Train, TrainStops}

// ParseDomain converts a domain name, rejecting unknown values.
func ParseDomain(s string) (Domain, error) {
	for _, d := range AllDomains {
		if string(d) == s {
			return d, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnknownEndpoint, "unknown domain %q", s)
}

// Service describes how to reach one domain.
type Service struct {
	Domain         Domain
	BaseURL        string           // Ends with '/'
	Format         normalize.Format // Payload format of every endpoint
	KeyParam       string           // Query parameter carrying the API key, "" if none
	RequiresAPIKey bool             // Calls fail without a configured key
}

// Descriptor is a resolved endpoint.
type Descriptor struct {
	Domain         Domain
	Key            string // Endpoint key, e.g. "predictions"
	PathTemplate   string // Path relative to the service base URL
	RequiresAPIKey bool
	Service        Service
}

// URL returns the endpoint URL without a query string.
func (d Descriptor) URL() string {
	return d.Service.BaseURL + d.PathTemplate
}

// Registry resolves endpoints. The zero value has no services.
type Registry struct {
	services  map[Domain]Service
	endpoints map[Domain]map[string]string
}

// Default returns the registry of the public CTA and City of Chicago APIs.
func Default() *Registry {
	return &Registry{
		services: map[Domain]Service{
			Alerts: {
				Domain:  Alerts,
				BaseURL: "http://www.transitchicago.com/api/1.0/",
				Format:  normalize.FormatXML,
			},
			Bus: {
				Domain:         Bus,
				BaseURL:        "http://www.ctabustracker.com/bustime/api/v1/",
				Format:         normalize.FormatXML,
				KeyParam:       "key",
				RequiresAPIKey: true,
			},
			Train: {
				Domain:         Train,
				BaseURL:        "http://lapi.transitchicago.com/api/1.0/",
				Format:         normalize.FormatXML,
				KeyParam:       "key",
				RequiresAPIKey: true,
			},
			TrainStops: {
				Domain:   TrainStops,
				BaseURL:  "http://data.cityofchicago.org/",
				Format:   normalize.FormatJSON,
				KeyParam: "$$app_token",
			},
		},
		endpoints: map[Domain]map[string]string{
			Alerts: {
				"routes": "routes.aspx",
				"alerts": "alerts.aspx",
			},
			Bus: {
				"time":             "gettime",
				"vehicles":         "getvehicles",
				"routes":           "getroutes",
				"routeDirections":  "getdirections",
				"stops":            "getstops",
				"patterns":         "getpatterns",
				"predictions":      "getpredictions",
				"serviceBulletins": "getservicebulletins",
			},
			Train: {
				"arrivals":        "ttarrivals.aspx",
				"followThisTrain": "ttfollow.aspx",
				"locations":       "ttpositions.aspx",
			},
			TrainStops: {
				StopsEndpoint: "resource/8mj8-j3c4.json",
			},
		},
	}
}

// Resolve looks up an endpoint. It fails with UNKNOWN_ENDPOINT when either
// the domain or the key is not registered.
func (r *Registry) Resolve(domain Domain, key string) (Descriptor, error) {
	svc, ok := r.services[domain]
	if !ok {
		return Descriptor{}, errors.New(errors.ErrCodeUnknownEndpoint, "unknown domain %q", domain)
	}
	path, ok := r.endpoints[domain][key]
	if !ok {
		return Descriptor{}, errors.New(errors.ErrCodeUnknownEndpoint, "unknown %s endpoint %q", domain, key)
	}
	return Descriptor{
		Domain:         domain,
		Key:            key,
		PathTemplate:   path,
		RequiresAPIKey: svc.RequiresAPIKey,
		Service:        svc,
	}, nil
}

// Service returns the service for domain.
func (r *Registry) Service(domain Domain) (Service, bool) {
	svc, ok := r.services[domain]
	return svc, ok
}

// Domains returns the registered domains in display order.
func (r *Registry) Domains() []Domain {
	var out []Domain
	for _, d := range AllDomains {
		if _, ok := r.services[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Endpoints returns the endpoint descriptors of domain sorted by key.
func (r *Registry) Endpoints(domain Domain) []Descriptor {
	keys := make([]string, 0, len(r.endpoints[domain]))
	for k := range r.endpoints[domain] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Descriptor, 0, len(keys))
	for _, k := range keys {
		d, err := r.Resolve(domain, k)
		if err == nil {
			out = append(out, d)
		}
	}
	return out
}

// WithBaseURL returns a copy of r whose domain points at baseURL.
// The receiver is left untouched.
func (r *Registry) WithBaseURL(domain Domain, baseURL string) (*Registry, error) {
	svc, ok := r.services[domain]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownEndpoint, "unknown domain %q", domain)
	}
	if err := errors.ValidateBaseURL(baseURL); err != nil {
		return nil, err
	}

	services := make(map[Domain]Service, len(r.services))
	for d, s := range r.services {
		services[d] = s
	}
	svc.BaseURL = baseURL
	services[domain] = svc

	return &Registry{services: services, endpoints: r.endpoints}, nil
}
