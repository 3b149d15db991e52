package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/ctabridge/internal/server"
)

// serveCommand runs the JSON HTTP proxy until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the CTA APIs as normalized JSON over HTTP",
		Example: `  ctabridge serve --addr :8080
  curl 'localhost:8080/v1/bus/predictions?stpid=456'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx := cmd.Context()
			client, cc, err := c.newClient(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer c.closeCache(cc)

			c.Logger.Info("cache", "backend", cc.Backend())
			srv := server.New(client,
				server.WithLogger(c.Logger),
				server.WithRequestTimeout(cfg.Server.RequestTimeout),
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the response cache")
	return cmd
}
