package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leofalp/sdtt/internal/render"
	"github.com/leofalp/sdtt/internal/transport/httpapi"
	"github.com/leofalp/sdtt/internal/transport/mcptools"
)

func newServeCommand(g *globals) *cobra.Command {
	var (
		addr       string
		allowFiles bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tester over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, obs, client, err := g.setup(slog.LevelInfo)
			if err != nil {
				return err
			}
			defer client.Close()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			opts := []httpapi.Option{httpapi.WithObserver(obs)}
			if allowFiles {
				opts = append(opts, httpapi.WithFileAccess())
			}
			return httpapi.New(client, opts...).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&allowFiles, "allow-files", false, "let requests read local files")
	return cmd
}

func newMCPCommand(g *globals, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tester as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol; logs stay on stderr.
			_, obs, client, err := g.setup(slog.LevelWarn)
			if err != nil {
				return err
			}
			defer client.Close()

			srv := mcptools.New(client, obs).NewServer(version)
			return mcptools.ServeStdio(cmd.Context(), srv)
		},
	}
}

func newListCommand(g *globals, what string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   what,
		Short: "List the available " + what,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			format, err := render.ParseFormat(output)
			if err != nil {
				return err
			}
			_, _, client, err := g.setup(slog.LevelWarn)
			if err != nil {
				return err
			}
			defer client.Close()

			t := &testCmd{globals: g}
			return t.list(client, format, what == "presets", what == "schemas")
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}
