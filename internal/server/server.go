// Package server exposes the dispatcher as a read-only JSON HTTP API.
//
// Routes:
//
//	GET /healthz
//	GET /v1/endpoints
//	GET /v1/lines
//	GET /v1/trainStops
//	GET /v1/{domain}/{endpoint}
//
// The request query string is forwarded to the upstream call in order.
// Responses are the normalized tree as JSON; failures are
// {"error": {"code": ..., "message": ...}} with a status derived from the
// error code.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/ctabridge/pkg/cta"
	"github.com/matzehuels/ctabridge/pkg/endpoint"
	"github.com/matzehuels/ctabridge/pkg/errors"
	"github.com/matzehuels/ctabridge/pkg/normalize"
	"github.com/matzehuels/ctabridge/pkg/query"
)

// DefaultRequestTimeout bounds a single upstream call made for a request.
const DefaultRequestTimeout = 30 * time.Second

// Server routes HTTP requests to a dispatcher client.
type Server struct {
	client  *cta.Client
	logger  *log.Logger
	timeout time.Duration
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRequestTimeout sets the per-request upstream timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New creates a server for client.
func New(client *cta.Client, opts ...Option) *Server {
	s := &Server{client: client, timeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimw.RealIP)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/endpoints", s.handleEndpoints)
		r.Get("/lines", s.handleLines)
		r.Get("/trainStops", s.handleTrainStops)
		r.Get("/{domain}/{endpoint}", s.handleCall)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeUnknownEndpoint, "no route for %s", r.URL.Path))
	})

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

type endpointInfo struct {
	Domain         endpoint.Domain  `json:"domain"`
	Endpoint       string           `json:"endpoint"`
	URL            string           `json:"url"`
	Format         normalize.Format `json:"format"`
	RequiresAPIKey bool             `json:"requires_api_key"`
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	reg := s.client.Registry()
	out := []endpointInfo{}
	for _, d := range reg.Domains() {
		for _, desc := range reg.Endpoints(d) {
			out = append(out, endpointInfo{
				Domain:         desc.Domain,
				Endpoint:       desc.Key,
				URL:            desc.URL(),
				Format:         desc.Service.Format,
				RequiresAPIKey: desc.RequiresAPIKey,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type lineInfo struct {
	AlertID      string `json:"alert_id"`
	Name         string `json:"name"`
	TrainStopsID string `json:"train_stops_id"`
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	lines := endpoint.Lines()
	out := make([]lineInfo, len(lines))
	for i, l := range lines {
		out[i] = lineInfo{AlertID: l.AlertID, Name: l.NiceName, TrainStopsID: l.TrainStopsID}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTrainStops(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, endpoint.TrainStops, endpoint.StopsEndpoint)
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	domain, err := endpoint.ParseDomain(chi.URLParam(r, "domain"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.dispatch(w, r, domain, chi.URLParam(r, "endpoint"))
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, domain endpoint.Domain, key string) {
	params, err := parseParams(r.URL.RawQuery)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	tree, err := s.client.Call(ctx, domain, key, params)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = errors.Wrap(errors.ErrCodeTimeout, err, "%s %s timed out after %s", domain, key, s.timeout)
		}
		writeError(w, err)
		return
	}

	body, err := normalize.Marshal(tree)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// parseParams converts the request query and rejects names that cannot be
// forwarded upstream.
func parseParams(raw string) (*query.Params, error) {
	params, err := query.ParseRawQuery(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed query string")
	}
	for _, name := range params.Names() {
		if err := errors.ValidateParamName(name); err != nil {
			return nil, err
		}
	}
	return params, nil
}
