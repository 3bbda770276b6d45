package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/retrieval"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the documentation index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			r, err := retrieval.New(cfg)
			if err != nil {
				return err
			}

			info, err := r.Info(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			out := output.New(cmd.OutOrStdout())
			out.Field("Corpus", cfg.Corpus.Root)
			out.Field("Index", cfg.Index.Path)
			out.Field("Checksum", info.Checksum)
			out.Field("Fragments", info.FragmentCount)
			out.Field("Terms", info.TermCount)
			out.Field("Built at", info.BuiltAt)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
