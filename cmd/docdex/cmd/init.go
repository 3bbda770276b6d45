package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .docdex.yaml config for the corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(corpusRoot, config.ConfigFileName)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.NewConfig()
			cfg.Corpus.Root = corpusRoot
			if err := cfg.Save(path); err != nil {
				return err
			}

			output.New(cmd.OutOrStdout()).Successf("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
