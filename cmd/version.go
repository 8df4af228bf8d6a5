package cmd

import (
	"fmt"

	"github.com/bnema/riverbridge/internal/river"
	"github.com/spf13/cobra"
)

var (
	// Version info set by main package
	Version = "0.1.0-dev"
	Commit  string
	Date    string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "riverbridge %s\n", Version)
		if Commit != "" {
			fmt.Fprintf(out, "commit: %s\n", Commit)
		}
		if Date != "" {
			fmt.Fprintf(out, "built: %s\n", Date)
		}
		fmt.Fprintf(out, "protocols: %s v%d, %s v%d\n",
			river.StatusManagerInterface, river.StatusManagerVersion,
			river.ControlInterface, river.ControlVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
