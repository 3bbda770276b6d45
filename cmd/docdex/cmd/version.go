package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Short())
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include build metadata")

	return cmd
}
