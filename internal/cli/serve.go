package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/vibecheck/internal/mcpserver"
	"github.com/ppiankov/vibecheck/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API over HTTP",
	Long: `Serve exposes the cached documents to the dashboard:

  GET  /api/vibecheck/{summary,vibe_report,competitive,triage}
  GET  /api/vibecheck/chi?carrier=tmobile
  POST /api/vibecheck/refresh[?view=summary]
  GET  /healthz

Example:
  vibecheck serve --addr :5001`,
	RunE: runServe,
}

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server over stdio",
	Long: `Run vibecheck as a Model Context Protocol server on stdin/stdout,
exposing the vibecheck_get_view and vibecheck_compute_chi tools.
Logs go to stderr.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :5001)")
	serveCmd.Flags().String("allow-origin", "", "CORS allowed origin (default *)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.allow_origin", serveCmd.Flags().Lookup("allow-origin"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.config.Server, a.config.Carriers.List, a.pipeline, a.log)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("serve failed: %w", err)
	}
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := mcpserver.Serve(mcpserver.New(Version, a.pipeline, a.log)); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
