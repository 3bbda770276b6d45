package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/retrieval"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	topK    int
	format  string // "text", "structured", "json"
	noRetry bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Retrieve the documentation fragments most relevant to a query",
		Long: `Search the indexed documentation with BM25 ranking.

The index is rebuilt transparently when the documentation has changed
since the last build.

Examples:
  docdex search "workflow orchestration"
  docdex search "streaming events" --top-k 3
  docdex search "error handling" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Maximum number of fragments (0 uses the configured default)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, structured, json")
	cmd.Flags().BoolVar(&opts.noRetry, "no-retry", false, "Fail immediately instead of retrying transient errors")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	r, err := retrieval.New(cfg)
	if err != nil {
		return err
	}

	slog.Info("search_started", slog.String("query", query), slog.Int("top_k", opts.topK))

	structured := opts.format == "structured"
	var resp *retrieval.Response
	retrieve := func() error {
		var rerr error
		resp, rerr = r.Retrieve(ctx, query, opts.topK, structured)
		return rerr
	}

	if opts.noRetry {
		err = retrieve()
	} else {
		err = errors.Retry(ctx, errors.DefaultRetryConfig(), retrieve)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch opts.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Results)
	case "text", "structured":
		fmt.Fprintln(out, strings.TrimRight(resp.Formatted, "\n"))
		if f, ok := out.(*os.File); ok && colorEnabled(f.Fd()) {
			fmt.Fprintf(os.Stderr, "\n%d fragment(s), corpus %s\n", len(resp.Results), resp.Checksum)
		}
		return nil
	default:
		return errors.ValidationError(
			fmt.Sprintf("unknown format %q (supported: text, structured, json)", opts.format), nil)
	}
}

// colorEnabled reports whether stdout is a terminal. Plain output
// stays pipe-friendly either way.
func colorEnabled(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
