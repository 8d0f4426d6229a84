package commands

import (
	"fmt"
	"log/slog"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/traceforge/sqltrace/internal/cli/config"
	"github.com/traceforge/sqltrace/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Host      string
	Port      int
	NoBrowser bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the lineage explorer web UI",
		Long: `Start an HTTP server with an interactive lineage explorer.

Paste a SQL statement in the browser to see its table lineage rendered
as a graph. The server also exposes POST /map for programmatic use.`,
		Example: `  # Serve on the default address
  sqltrace serve

  # Serve on a specific port
  sqltrace serve --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "Host to bind to")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Port to listen on")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Do not open the UI in a browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := config.GetCurrentConfig()

	host := cfg.Host
	if opts.Host != "" {
		host = opts.Host
	}
	port := cfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := config.GetLogger(cmd.Context())

	if !opts.NoBrowser {
		go openBrowser(fmt.Sprintf("http://%s:%d", host, port), logger)
	}

	srv := ui.NewServer(ui.Config{
		Host:        host,
		Port:        port,
		KeepOrphans: cfg.KeepOrphans,
		Logger:      logger,
	})
	return srv.Serve(ctx)
}

// openBrowser opens the UI in the default browser, best effort.
func openBrowser(url string, logger *slog.Logger) {
	time.Sleep(200 * time.Millisecond)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Debug("could not open browser", "url", url, "error", err)
	}
}
