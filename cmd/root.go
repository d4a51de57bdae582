package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"buddy-mcp/config"
	"buddy-mcp/github"
	"buddy-mcp/logger"
	"buddy-mcp/mcp"
	"buddy-mcp/supabase"
	"buddy-mcp/tools"
	"buddy-mcp/vercel"
)

var (
	// Version information - set by version.go
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// CLI represents the command line interface structure using Kong
type CLI struct {
	ConfigPath string `name:"config" help:"Path to config file" type:"path"`
	Debug      bool   `help:"Enable debug logging (API requests go to stderr)"`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Serve MCP over HTTP (JSON-RPC POST, event stream GET)"`
	Stdio   StdioCmd   `cmd:"" help:"Serve MCP over stdin/stdout"`
	Tools   ToolsCmd   `cmd:"" help:"List the published tools"`
	Call    CallCmd    `cmd:"" help:"Invoke one tool and print its text result"`
	Config  ConfigCmd  `cmd:"" help:"Show effective configuration with secrets masked"`
	Version VersionCmd `cmd:"" help:"Show version information"`

	out io.Writer `kong:"-"`
}

// StdioCmd represents the stdio command structure
type StdioCmd struct{}

// ToolsCmd represents the tools command structure
type ToolsCmd struct {
	JSON bool `help:"Print descriptors with input schemas as JSON"`
}

// CallCmd represents the call command structure
type CallCmd struct {
	Name      string `arg:"" help:"Tool name (see 'buddy-mcp tools')"`
	Arguments string `arg:"" optional:"" help:"Tool arguments as a JSON object"`
}

// ConfigCmd represents the config command structure
type ConfigCmd struct{}

// VersionCmd represents the version command structure
type VersionCmd struct{}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	opts := append([]kong.Option{
		kong.Name(config.AppName),
		kong.Description("MCP tool server for GitHub, Supabase and Vercel"),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s, built %s)", appVersion, appCommit, appDate),
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}, options...)
	return kong.New(cli, opts...)
}

// Execute is the main entry point for all commands
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout)
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cli := &CLI{out: out}
	parser, err := newParser(cli, kong.Writers(out, os.Stderr))
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	kctx.BindTo(ctx, (*context.Context)(nil))
	return kctx.Run(cli)
}

// loadConfig reads configuration and applies the debug switch.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.GetConfig(c.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if c.Debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		logger.EnableDebug()
	}
	return cfg, nil
}

// buildBackends creates one client per backend. Missing credentials are
// not an error here; the affected tools fail when invoked.
func buildBackends(cfg *config.Config) (tools.Backends, func(), error) {
	store, err := supabase.New(cfg.Supabase, cfg.Debug)
	if err != nil {
		return tools.Backends{}, nil, err
	}
	cleanup := func() {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return tools.Backends{
		GitHub:   github.New(cfg.GitHub, cfg.Debug),
		Supabase: store,
		Vercel:   vercel.New(cfg.Vercel, cfg.Debug),
	}, cleanup, nil
}

func (c *CLI) newServer(cfg *config.Config, metrics *mcp.Metrics) (*mcp.Server, func(), error) {
	backends, cleanup, err := buildBackends(cfg)
	if err != nil {
		return nil, nil, err
	}
	srv := mcp.NewServer(tools.New(backends), mcp.Options{
		Version:   strings.TrimPrefix(appVersion, "v"),
		KeepAlive: cfg.Server.KeepAlive,
		Metrics:   metrics,
	})
	return srv, cleanup, nil
}

// Run implements the stdio command execution
func (s *StdioCmd) Run(ctx context.Context, cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	srv, cleanup, err := cli.newServer(cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()
	return srv.ServeStdio(ctx)
}

// Run implements the tools command execution
func (t *ToolsCmd) Run(cli *CLI) error {
	catalog := tools.Catalog()
	if t.JSON {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	}
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREQUIRED\tDESCRIPTION")
	for _, d := range catalog {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, strings.Join(d.InputSchema.Required, ","), d.Description)
	}
	return w.Flush()
}

// Run implements the call command execution
func (c *CallCmd) Run(ctx context.Context, cli *CLI) error {
	var args json.RawMessage
	if c.Arguments != "" {
		if !json.Valid([]byte(c.Arguments)) {
			return fmt.Errorf("arguments are not valid JSON: %s", c.Arguments)
		}
		args = json.RawMessage(c.Arguments)
	}

	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	backends, cleanup, err := buildBackends(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	content, err := tools.New(backends).Invoke(ctx, c.Name, args)
	if err != nil {
		return fmt.Errorf("%s (%s)", err, tools.KindOf(err))
	}
	for _, item := range content {
		fmt.Fprintln(cli.out, item.Text)
	}
	return nil
}

// Run implements the config command execution
func (c *ConfigCmd) Run(cli *CLI) error {
	return ShowSettings(cli)
}

// Run implements the version command execution
func (v *VersionCmd) Run(cli *CLI) error {
	fmt.Fprintf(cli.out, "%s version %s\n", config.AppName, appVersion)
	fmt.Fprintf(cli.out, "commit: %s\n", appCommit)
	fmt.Fprintf(cli.out, "built: %s\n", appDate)
	return nil
}
