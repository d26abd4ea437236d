package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/canonurl/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.Summary())
	},
}
