// Package cli implements the ctabridge command-line interface.
//
// Commands call the CTA APIs through the dispatcher in pkg/cta, manage the
// response cache and run the HTTP proxy. The CLI is built using cobra and
// logs through charmbracelet/log on stderr; stdout carries only results.
//
// # Commands
//
//   - alerts, bus, train, stops: perform a single call
//   - watch: re-issue a call on a ticker in a terminal view
//   - endpoints, lines: list the endpoint registry and train lines
//   - cache: inspect, purge or clear the response cache
//   - serve: run the JSON HTTP proxy
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports cache hits, misses and upstream requests.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ctabridge/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Purged 12 entries (4ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Observability Hooks
// =============================================================================

// logHooks writes observability events to a logger at debug level.
type logHooks struct {
	logger *log.Logger
}

func registerLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetDispatchHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h logHooks) OnCallStart(_ context.Context, domain, endpoint string) {
	h.logger.Debug("call start", "domain", domain, "endpoint", endpoint)
}

func (h logHooks) OnCallComplete(_ context.Context, domain, endpoint string, cached bool, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("call failed", "domain", domain, "endpoint", endpoint, "took", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("call done", "domain", domain, "endpoint", endpoint, "cached", cached, "took", d.Round(time.Millisecond))
}

func (h logHooks) OnCacheHit(_ context.Context, backend string) {
	h.logger.Debug("cache hit", "backend", backend)
}

func (h logHooks) OnCacheMiss(_ context.Context, backend string) {
	h.logger.Debug("cache miss", "backend", backend)
}

func (h logHooks) OnCacheSet(_ context.Context, backend string, size int) {
	h.logger.Debug("cache set", "backend", backend, "bytes", size)
}

func (h logHooks) OnCacheEvict(_ context.Context, backend string, age time.Duration) {
	h.logger.Debug("cache evict", "backend", backend, "age", age.Round(time.Second))
}

func (h logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
