package cmd

import (
	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/retrieval"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or rebuild the documentation index",
		Long: `Scan the corpus, build the BM25 index, and persist it under
<corpus>/.docdex/index.json. Queries rebuild automatically when the
corpus changes, so running this by hand is only needed to warm the
index ahead of time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			r, err := retrieval.New(cfg)
			if err != nil {
				return err
			}

			info, err := r.Rebuild(cmd.Context())
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			out.Successf("Indexed %d fragments (%d terms, avg length %.1f tokens)",
				info.FragmentCount, info.TermCount, info.AvgDocLen)
			out.Printf("Corpus checksum: %s\n", info.Checksum)
			return nil
		},
	}

	return cmd
}
