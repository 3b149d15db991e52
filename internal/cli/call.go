package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ctabridge/pkg/endpoint"
	"github.com/matzehuels/ctabridge/pkg/errors"
	"github.com/matzehuels/ctabridge/pkg/httputil"
	"github.com/matzehuels/ctabridge/pkg/normalize"
	"github.com/matzehuels/ctabridge/pkg/query"
)

// Output formats for call results.
const (
	formatJSON = "json"
	formatTree = "tree"
)

// defaultRetryDelay is the first backoff delay for --retries.
const defaultRetryDelay = 500 * time.Millisecond

// callOpts holds flags shared by the call commands.
type callOpts struct {
	params  []string
	format  string
	retries int
	dryRun  bool
	noCache bool
	quiet   bool
	sel     string
}

func (o *callOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&o.params, "param", "p", nil, "query parameter as name=value (repeatable)")
	cmd.Flags().StringVarP(&o.format, "format", "f", formatJSON, "output format: json or tree")
	cmd.Flags().IntVar(&o.retries, "retries", 0, "retry transient network failures up to N times")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "print the request URL without calling")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "bypass the response cache")
	cmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "hide the progress spinner")
	cmd.Flags().StringVarP(&o.sel, "select", "s", "", "print only the value at a dot-separated key path, e.g. ctatt.eta")
}

func (c *CLI) alertsCommand() *cobra.Command {
	return c.domainCommand(endpoint.Alerts, "alerts <endpoint>", "Call the Customer Alerts API",
		`  ctabridge alerts routes -p type=rail
  ctabridge alerts alerts -p routeid=Red -p activeonly=true`)
}

func (c *CLI) busCommand() *cobra.Command {
	return c.domainCommand(endpoint.Bus, "bus <endpoint>", "Call the Bus Tracker API",
		`  ctabridge bus predictions -p stpid=456 -p rt=20
  ctabridge bus vehicles -p vid=1993 -p vid=1219`)
}

func (c *CLI) trainCommand() *cobra.Command {
	return c.domainCommand(endpoint.Train, "train <endpoint>", "Call the Train Tracker API",
		`  ctabridge train arrivals -p mapid=40380 -p max=5
  ctabridge train locations -p rt=red
  ctabridge train arrivals -p mapid=40380 --select ctatt.eta`)
}

// domainCommand builds a command that calls one endpoint of domain.
func (c *CLI) domainCommand(domain endpoint.Domain, use, short, example string) *cobra.Command {
	var opts callOpts
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Example: example,
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return endpointKeys(endpoint.Default(), domain), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCall(cmd, domain, args[0], opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func (c *CLI) stopsCommand() *cobra.Command {
	var opts callOpts
	cmd := &cobra.Command{
		Use:   "stops",
		Short: `Query the "L" stops open-data feed`,
		Example: `  ctabridge stops -p station_name=Clark/Lake
  ctabridge stops -p red=true --format tree`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCall(cmd, endpoint.TrainStops, endpoint.StopsEndpoint, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func (c *CLI) runCall(cmd *cobra.Command, domain endpoint.Domain, key string, opts callOpts) error {
	if opts.format != formatJSON && opts.format != formatTree {
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (use json or tree)", opts.format)
	}
	params, err := parseParamFlags(opts.params)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, cc, err := c.newClient(ctx, cfg, opts.noCache || opts.dryRun)
	if err != nil {
		return err
	}
	defer c.closeCache(cc)

	if opts.dryRun {
		url, err := client.URL(domain, key, params)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	}

	var spin *Spinner
	if !opts.quiet {
		spin = newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("%s %s", domain, key))
		spin.Start()
	}

	tree, err := callOnce(ctx, func(ctx context.Context) (normalize.Tree, error) {
		return client.Call(ctx, domain, key, params)
	}, opts.retries)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}
	if tree, err = selectPath(tree, opts.sel); err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), tree, opts.format)
}

// selectPath narrows tree to the value at a dot-separated path of map keys.
// An empty path selects the whole tree.
func selectPath(tree normalize.Tree, path string) (normalize.Tree, error) {
	if path == "" {
		return tree, nil
	}
	v, ok := normalize.Lookup(tree, strings.Split(path, ".")...)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no value at %q", path)
	}
	return v, nil
}

// writeResult prints tree as indented JSON or as an outline.
func writeResult(w io.Writer, tree normalize.Tree, format string) error {
	if format == formatTree {
		_, err := io.WriteString(w, renderTree(tree))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(tree)
}

// parseParamFlags converts name=value flags into ordered Params. A name given
// more than once becomes a list in flag order.
func parseParamFlags(flags []string) (*query.Params, error) {
	var order []string
	values := make(map[string][]string)
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "parameter %q is not name=value", f)
		}
		name = strings.TrimSpace(name)
		if err := errors.ValidateParamName(name); err != nil {
			return nil, err
		}
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = append(values[name], value)
	}

	p := query.NewParams()
	for _, name := range order {
		if vs := values[name]; len(vs) == 1 {
			p.Set(name, query.ParseValue(vs[0]))
		} else {
			p.Set(name, query.List(vs...))
		}
	}
	return p, nil
}

// endpointKeys lists the endpoint keys of domain for completion.
func endpointKeys(reg *endpoint.Registry, domain endpoint.Domain) []string {
	var keys []string
	for _, d := range reg.Endpoints(domain) {
		keys = append(keys, d.Key)
	}
	return keys
}

// callOnce runs call, retrying transient network failures up to retries
// times.
func callOnce(ctx context.Context, call func(context.Context) (normalize.Tree, error), retries int) (normalize.Tree, error) {
	var tree normalize.Tree
	err := httputil.Retry(ctx, retries+1, defaultRetryDelay, func() error {
		var err error
		tree, err = call(ctx)
		return err
	})
	return tree, err
}
