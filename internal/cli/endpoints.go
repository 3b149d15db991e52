package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ctabridge/pkg/endpoint"
)

// endpointsCommand lists the registry, including base URL overrides from
// the configuration.
func (c *CLI) endpointsCommand() *cobra.Command {
	var domainFlag string
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List the available API endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			reg, err := cfg.Registry()
			if err != nil {
				return err
			}

			domains := reg.Domains()
			if domainFlag != "" {
				d, err := endpoint.ParseDomain(domainFlag)
				if err != nil {
					return err
				}
				domains = []endpoint.Domain{d}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Domain", "Endpoint", "URL", "Format", "Key"},
				endpointRows(reg, domains),
			))
			return nil
		},
	}
	cmd.Flags().StringVarP(&domainFlag, "domain", "d", "", "only list endpoints of this domain")
	return cmd
}

func endpointRows(reg *endpoint.Registry, domains []endpoint.Domain) [][]string {
	var rows [][]string
	for _, d := range domains {
		for _, desc := range reg.Endpoints(d) {
			key := "optional"
			switch {
			case desc.RequiresAPIKey:
				key = "required"
			case desc.Service.KeyParam == "":
				key = "none"
			}
			rows = append(rows, []string{
				string(desc.Domain),
				desc.Key,
				desc.URL(),
				string(desc.Service.Format),
				key,
			})
		}
	}
	return rows
}

// linesCommand prints the "L" line identifiers used by the different feeds.
func (c *CLI) linesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lines",
		Short: `List "L" train lines and their feed identifiers`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Line", "Alerts ID", "Stops column"},
				lineRows(endpoint.Lines()),
			))
			return nil
		},
	}
}

func lineRows(lines []endpoint.Line) [][]string {
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{l.NiceName, l.AlertID, l.TrainStopsID}
	}
	return rows
}
