package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/mcp"
	"github.com/docdex/docdex/internal/retrieval"
	"github.com/docdex/docdex/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var watch bool
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Serve documentation retrieval to AI clients over the Model Context
Protocol. The server exposes get_relevant_context and doc_index_status
tools and rebuilds the index on demand when the corpus changes.

With --watch, corpus edits trigger a background rebuild so the next
query is served from a warm index.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), watch, transport)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild the index proactively on corpus changes")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "MCP transport (stdio)")

	return cmd
}

func runServe(ctx context.Context, watch bool, transport string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if transport == "" {
		transport = cfg.Server.Transport
	}

	r, err := retrieval.New(cfg)
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(r, cfg, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watch || cfg.Server.Watch {
		debounce, perr := time.ParseDuration(cfg.Server.WatchDebounce)
		if perr != nil {
			debounce = 500 * time.Millisecond
		}
		w, werr := watcher.New(cfg.Corpus.Root, debounce, func() {
			if _, rerr := r.Rebuild(context.Background()); rerr != nil {
				slog.Warn("watch_rebuild_failed", slog.String("error", rerr.Error()))
			}
		}, slog.Default())
		if werr != nil {
			return werr
		}
		defer w.Close()
		go w.Run(ctx)
	}

	return srv.Serve(ctx, transport)
}
