// Package commands implements the sqltrace subcommands.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/traceforge/sqltrace/internal/cli/config"
	"github.com/traceforge/sqltrace/internal/lineage"
)

// TraceOptions holds options for the trace command.
type TraceOptions struct {
	SQL          string
	OutputFormat string
	KeepOrphans  bool
	Watch        bool
}

// NewTraceCommand creates the trace command.
func NewTraceCommand() *cobra.Command {
	opts := &TraceOptions{}

	cmd := &cobra.Command{
		Use:   "trace [file]",
		Short: "Resolve table lineage for one SQL statement",
		Long: `Resolve the table-level lineage DAG of a single SQL statement.

The statement is read from a file argument, from stdin when the argument
is "-", or from the --sql flag. Output lists every table with its kind
(raw, intermediate, sink) and the "feeds" edges between them.`,
		Example: `  # Trace a file
  sqltrace trace pipeline.sql

  # Trace from stdin
  echo "CREATE TABLE s AS SELECT * FROM t" | sqltrace trace -

  # Inline SQL, JSON output
  sqltrace trace --sql "SELECT * FROM orders" --output json

  # Graphviz output
  sqltrace trace pipeline.sql --output dot

  # Re-resolve whenever the file changes
  sqltrace trace pipeline.sql --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runTrace(cmd, file, opts)
		},
	}

	cmd.Flags().StringVar(&opts.SQL, "sql", "", "SQL statement to trace (instead of a file)")
	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "", "Output format (text|json|dot)")
	cmd.Flags().BoolVar(&opts.KeepOrphans, "keep-orphans", false, "Keep CTEs that nothing consumes")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Watch the file and re-resolve on change")

	return cmd
}

func runTrace(cmd *cobra.Command, file string, opts *TraceOptions) error {
	cfg := config.GetCurrentConfig()

	format := opts.OutputFormat
	if format == "" {
		format = cfg.Output
	}

	keepOrphans := cfg.KeepOrphans || opts.KeepOrphans
	lineageOpts := lineage.Options{KeepOrphans: keepOrphans}

	if opts.SQL != "" {
		return traceOnce(cmd.OutOrStdout(), opts.SQL, format, lineageOpts)
	}

	if file == "" {
		return fmt.Errorf("no input: pass a file argument, \"-\" for stdin, or --sql")
	}

	if file == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return traceOnce(cmd.OutOrStdout(), string(data), format, lineageOpts)
	}

	if opts.Watch {
		return traceWatch(cmd, file, format, lineageOpts)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	return traceOnce(cmd.OutOrStdout(), string(data), format, lineageOpts)
}

// traceOnce resolves and renders lineage for one statement.
func traceOnce(w io.Writer, sql string, format string, opts lineage.Options) error {
	g, err := lineage.Extract(sql, opts)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return renderJSON(w, g)
	case "dot":
		return renderDot(w, g)
	default:
		return renderText(w, g)
	}
}

// traceWatch re-resolves the file whenever it changes, until interrupted.
func traceWatch(cmd *cobra.Command, file string, format string, opts lineage.Options) error {
	logger := config.GetLogger(cmd.Context())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", file, err)
	}

	resolve := func() {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Error("read failed", "file", file, "error", err)
			return
		}
		if err := traceOnce(cmd.OutOrStdout(), string(data), format, opts); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	resolve()
	logger.Info("watching for changes", "file", file)

	abs, _ := filepath.Abs(file)
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evAbs, _ := filepath.Abs(event.Name)
			if evAbs != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				resolve()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)
		}
	}
}
