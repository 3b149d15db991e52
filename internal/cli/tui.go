package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ctabridge/pkg/endpoint"
	"github.com/matzehuels/ctabridge/pkg/errors"
	"github.com/matzehuels/ctabridge/pkg/normalize"
)

// defaultWatchInterval is the --every default. Refreshes inside the cache
// TTL are served from the cache.
const defaultWatchInterval = 30 * time.Second

// watchCommand re-issues one call on a ticker and shows the latest result.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		opts  callOpts
		every time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <domain> [endpoint]",
		Short: "Repeat a call and show the live result",
		Example: `  ctabridge watch bus predictions -p stpid=456 --every 30s
  ctabridge watch trainStops -p red=true
  ctabridge watch train arrivals -p mapid=40380 --select ctatt.eta`,
		Args: cobra.RangeArgs(1, 2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			switch len(args) {
			case 0:
				var out []string
				for _, d := range endpoint.AllDomains {
					out = append(out, string(d))
				}
				return out, cobra.ShellCompDirectiveNoFileComp
			case 1:
				if d, err := endpoint.ParseDomain(args[0]); err == nil {
					return endpointKeys(endpoint.Default(), d), cobra.ShellCompDirectiveNoFileComp
				}
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, key, err := watchTarget(args)
			if err != nil {
				return err
			}
			if every <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "--every must be positive")
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
			client, cc, err := c.newClient(ctx, cfg, opts.noCache)
			if err != nil {
				return err
			}
			defer c.closeCache(cc)

			fetch := func(ctx context.Context) (normalize.Tree, error) {
				tree, err := callOnce(ctx, func(ctx context.Context) (normalize.Tree, error) {
					return client.Call(ctx, domain, key, params)
				}, opts.retries)
				if err != nil {
					return nil, err
				}
				return selectPath(tree, opts.sel)
			}
			title := fmt.Sprintf("%s %s", domain, key)
			if params.Len() > 0 {
				title += " " + strings.Join(params.Names(), ",")
			}

			m := NewWatchModel(ctx, title, every, fetch)
			m.Select = opts.sel
			_, err = tea.NewProgram(m,
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithOutput(cmd.OutOrStdout()),
			).Run()
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "query parameter as name=value (repeatable)")
	cmd.Flags().IntVar(&opts.retries, "retries", 0, "retry transient network failures up to N times")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the response cache")
	cmd.Flags().StringVarP(&opts.sel, "select", "s", "", "show only the value at a dot-separated key path")
	cmd.Flags().DurationVar(&every, "every", defaultWatchInterval, "refresh interval")
	return cmd
}

// watchTarget resolves the positional arguments. The trainStops domain has
// a single endpoint, so it may be omitted.
func watchTarget(args []string) (endpoint.Domain, string, error) {
	domain, err := endpoint.ParseDomain(args[0])
	if err != nil {
		return "", "", err
	}
	if len(args) == 2 {
		return domain, args[1], nil
	}
	if domain == endpoint.TrainStops {
		return domain, endpoint.StopsEndpoint, nil
	}
	return "", "", errors.New(errors.ErrCodeInvalidInput, "%s needs an endpoint argument", domain)
}

// =============================================================================
// WatchModel - live refreshing call result
// =============================================================================

// watchResult carries the outcome of one refresh.
type watchResult struct {
	tree normalize.Tree
	err  error
	at   time.Time
}

// watchTick schedules the next refresh. gen discards ticks scheduled before
// a manual refresh.
type watchTick struct{ gen int }

// WatchModel is the bubbletea model for the watch command.
type WatchModel struct {
	Title  string
	Every  time.Duration
	Select string // Key path the fetch narrows to; its entries are counted

	ctx   context.Context
	fetch func(context.Context) (normalize.Tree, error)

	tree      normalize.Tree
	err       error
	updated   time.Time
	refreshes int
	loading   bool
	gen       int

	Height int
	Offset int
}

// NewWatchModel creates a model that calls fetch every interval.
func NewWatchModel(ctx context.Context, title string, every time.Duration, fetch func(context.Context) (normalize.Tree, error)) WatchModel {
	return WatchModel{
		Title:   title,
		Every:   every,
		ctx:     ctx,
		fetch:   fetch,
		loading: true,
		Height:  20,
	}
}

func (m WatchModel) Init() tea.Cmd {
	return m.refresh()
}

func (m WatchModel) refresh() tea.Cmd {
	ctx, fetch := m.ctx, m.fetch
	return func() tea.Msg {
		tree, err := fetch(ctx)
		return watchResult{tree: tree, err: err, at: time.Now()}
	}
}

func (m WatchModel) schedule() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.Every, func(time.Time) tea.Msg { return watchTick{gen: gen} })
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case watchResult:
		m.loading = false
		m.refreshes++
		m.updated = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.tree = msg.tree
		}
		return m, m.schedule()
	case watchTick:
		if msg.gen != m.gen || m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.refresh()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.gen++
			m.loading = true
			return m, m.refresh()
		case "up", "k":
			if m.Offset > 0 {
				m.Offset--
			}
		case "down", "j":
			if m.Offset < len(m.lines())-1 {
				m.Offset++
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m WatchModel) lines() []string {
	if m.tree == nil {
		return nil
	}
	return strings.Split(strings.TrimRight(renderTree(m.tree), "\n"), "\n")
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	status := fmt.Sprintf("every %s", m.Every)
	if !m.updated.IsZero() {
		status = fmt.Sprintf("updated %s · %d refreshes · %s", m.updated.Format("15:04:05"), m.refreshes, status)
	}
	if m.Select != "" && m.tree != nil {
		status += fmt.Sprintf(" · %d in %s", len(normalize.List(m.tree)), m.Select)
	}
	if m.loading {
		status += " · " + StyleHighlight.Render("refreshing")
	}
	b.WriteString(StyleDim.Render(status))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(StyleError.Render(errors.UserMessage(m.err)))
		b.WriteString("\n\n")
	}

	lines := m.lines()
	end := min(m.Offset+m.Height, len(lines))
	for i := min(m.Offset, end); i < end; i++ {
		b.WriteString(lines[i])
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ scroll  r refresh  q quit"))
	return b.String()
}
