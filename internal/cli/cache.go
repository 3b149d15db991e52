package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ctabridge/pkg/cache"
	"github.com/matzehuels/ctabridge/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the API response cache",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cachePurgeCommand())
	cmd.AddCommand(c.cacheClearCommand())

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configured cache backend and location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printKeyValue(w, "Backend", cfg.Cache.Backend)
			if loc := cacheLocation(cfg.Cache); loc != "" {
				printKeyValue(w, "Location", loc)
			}
			printKeyValue(w, "TTL", cache.TTL.String())
			return nil
		},
	}
}

// cachePurgeCommand creates the "cache purge" subcommand.
func (c *CLI) cachePurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(cmd, func(cc *cache.Cache) error {
				prog := newProgress(c.Logger)
				n, err := cc.Purge(cmd.Context())
				if err != nil {
					return err
				}
				prog.done(fmt.Sprintf("Purged %d entries", n))
				printSuccess(cmd.OutOrStdout(), "Removed %d expired entries", n)
				return nil
			})
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(cmd, func(cc *cache.Cache) error {
				prog := newProgress(c.Logger)
				n, err := cc.Clear(cmd.Context())
				if err != nil {
					return err
				}
				prog.done(fmt.Sprintf("Cleared %d entries", n))
				if n == 0 {
					printInfo(cmd.OutOrStdout(), "Cache is empty")
					return nil
				}
				printSuccess(cmd.OutOrStdout(), "Cleared %d cached entries", n)
				printDetail(cmd.OutOrStdout(), "Backend: %s", cc.Backend())
				return nil
			})
		},
	}
}

func (c *CLI) withCache(cmd *cobra.Command, fn func(*cache.Cache) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	cc, err := c.openCache(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer c.closeCache(cc)
	return fn(cc)
}

// cacheLocation describes where the backend keeps data, without credentials.
func cacheLocation(cfg config.Cache) string {
	switch cfg.Backend {
	case cache.BackendSQLite, cache.BackendFile:
		return cfg.Path
	case cache.BackendPostgres:
		return redactURL(cfg.DSN)
	case cache.BackendRedis:
		return fmt.Sprintf("%s/%d", cfg.RedisAddr, cfg.RedisDB)
	case cache.BackendMongo:
		return redactURL(cfg.MongoURI) + " (" + cfg.MongoDatabase + ")"
	default:
		return ""
	}
}

// redactURL hides the password of a connection URL. Strings that are not
// URLs, such as key=value DSNs, are replaced entirely.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "(configured)"
	}
	return u.Redacted()
}
