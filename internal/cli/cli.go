// Package cli implements the sdtt command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leofalp/sdtt/internal/config"
	"github.com/leofalp/sdtt/pkg/sdtt"
	"github.com/leofalp/sdtt/providers/fetch"
	"github.com/leofalp/sdtt/providers/observability/slogobs"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
)

// errReported marks an error whose message was already printed.
var errReported = errors.New("reported")

// Execute runs the command line with os.Args and returns the exit code.
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(version, os.Stdout, os.Stderr)
	return run(ctx, cmd, os.Args[1:], os.Stderr)
}

func run(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, "Error: "+err.Error())
		}
		return ExitFailed
	}
	return ExitOK
}

// globals are the flags shared by every command.
type globals struct {
	configPath string
	strict     bool
	render     bool
	stdout     io.Writer
	stderr     io.Writer
}

// NewRootCommand builds the command tree writing to stdout and stderr.
func NewRootCommand(version string, stdout, stderr io.Writer) *cobra.Command {
	g := &globals{stdout: stdout, stderr: stderr}
	t := &testCmd{globals: g}

	root := &cobra.Command{
		Use:   "sdtt",
		Short: "Structured data testing tool",
		Long: `sdtt extracts structured data from a web page or HTML file (JSON-LD,
microdata, RDFa, Open Graph, Twitter cards and meta tags) and checks it
against presets and schemas.

Run without a value, --presets and --schemas list what is available.`,
		Example: `  sdtt --url example.com --presets SocialMedia
  sdtt -u https://example.com/post -s jsonld:Article,og:Article --output json
  sdtt -f page.html -p=Google,Twitter
  sdtt --presets`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE:          t.run,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	pf.BoolVar(&g.strict, "strict", false, "use strict type checks")
	pf.BoolVar(&g.render, "render", false, "render URLs in headless Chrome before extraction")

	t.bindFlags(root)

	root.AddCommand(
		newServeCommand(g),
		newMCPCommand(g, version),
		newListCommand(g, "presets"),
		newListCommand(g, "schemas"),
	)
	return root
}

// setup loads the configuration and builds a client from it.
func (g *globals) setup(defaultLevel slog.Level) (*config.Config, *slogobs.Observer, *sdtt.Client, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	schemas, presets, err := cfg.Registries()
	if err != nil {
		return nil, nil, nil, err
	}

	logOpts := []slogobs.Option{slogobs.WithOutput(g.stderr)}
	if os.Getenv("SDTT_LOG_LEVEL") == "" && os.Getenv("LOG_LEVEL") == "" {
		logOpts = append(logOpts, slogobs.WithLevel(defaultLevel))
	}
	obs := slogobs.New(append(logOpts, cfg.LogOptions()...)...)

	opts := []sdtt.Option{
		sdtt.WithRegistries(schemas, presets),
		sdtt.WithObserver(obs),
		sdtt.WithMaxBodySize(cfg.Fetch.MaxBodySize),
		sdtt.WithMaxConcurrency(cfg.Server.MaxConcurrency),
		sdtt.WithFetchOptions(
			fetch.WithTimeout(cfg.Fetch.Timeout),
			fetch.WithUserAgent(cfg.Fetch.UserAgent),
			fetch.WithMaxBodySize(cfg.Fetch.MaxBodySize),
		),
		sdtt.WithRenderOptions(
			fetch.WithRemoteURL(cfg.Fetch.BrowserURL),
			fetch.WithRenderTimeout(cfg.Fetch.Timeout),
			fetch.WithRenderMaxBodySize(cfg.Fetch.MaxBodySize),
		),
	}
	if g.strict || cfg.Match.StrictTypes {
		opts = append(opts, sdtt.WithStrictTypes())
	}
	if cfg.Fetch.Render {
		g.render = true
	}

	client, err := sdtt.New(opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, obs, client, nil
}
