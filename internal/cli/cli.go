// Package cli implements the ctabridge command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ctabridge/pkg/buildinfo"
	"github.com/matzehuels/ctabridge/pkg/cache"
	"github.com/matzehuels/ctabridge/pkg/config"
	"github.com/matzehuels/ctabridge/pkg/cta"
	"github.com/matzehuels/ctabridge/pkg/httputil"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "ctabridge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag; empty means the default location.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level and, at debug level, routes
// dispatcher, cache and HTTP events to the logger.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "ctabridge queries the Chicago Transit Authority APIs",
		Long: `ctabridge is a client for the CTA Bus Tracker, Train Tracker and Customer
Alerts APIs and the City of Chicago "L" stops feed. Responses are normalized
to JSON and cached for 60 seconds.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/ctabridge/config.toml)")

	// Register all subcommands
	root.AddCommand(c.alertsCommand())
	root.AddCommand(c.busCommand())
	root.AddCommand(c.trainCommand())
	root.AddCommand(c.stopsCommand())
	root.AddCommand(c.endpointsCommand())
	root.AddCommand(c.linesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Client Factory
// =============================================================================

func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("config loaded", "backend", cfg.Cache.Backend, "timeout", cfg.HTTP.Timeout)
	return cfg, nil
}

// openCache opens the configured cache backend, or the null store when
// noCache is set.
func (c *CLI) openCache(ctx context.Context, cfg config.Config, noCache bool) (*cache.Cache, error) {
	opts := cfg.CacheOptions()
	if noCache {
		opts = cache.Options{Backend: cache.BackendNone}
	}
	store, err := cache.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cache.New(store, cache.WithLogger(c.Logger)), nil
}

// newClient builds a dispatcher from the configuration. The returned cache
// must be closed by the caller.
func (c *CLI) newClient(ctx context.Context, cfg config.Config, noCache bool) (*cta.Client, *cache.Cache, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, nil, err
	}
	cc, err := c.openCache(ctx, cfg, noCache)
	if err != nil {
		return nil, nil, err
	}
	client := cta.New(cfg.APIKeys(),
		cta.WithRegistry(reg),
		cta.WithCache(cc),
		cta.WithFetcher(httputil.NewHTTPFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent)),
		cta.WithFetchTimeout(cfg.HTTP.Timeout),
		cta.WithLogger(c.Logger),
	)
	return client, cc, nil
}

// closeCache closes cc, logging rather than returning the error so it does
// not mask the command's own result.
func (c *CLI) closeCache(cc *cache.Cache) {
	if err := cc.Close(); err != nil {
		c.Logger.Warn("close cache", "backend", cc.Backend(), "err", err)
	}
}
