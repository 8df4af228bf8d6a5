package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/riverbridge/internal/river"
	"github.com/bnema/riverbridge/internal/ui"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status [output...]",
	Short: "Print the current tags, layouts and seat focus",
	Long: `Connect to river, collect the current status of the given outputs (all of
them when none are given) and of the seat, then print it once.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	wl, session, err := connectRiver()
	if err != nil {
		return err
	}
	defer session.Close()

	ids := args
	if len(ids) == 0 {
		ids = wl.OutputNames()
	}

	tracker, err := river.Track(session, wl, ids)
	if err != nil {
		return err
	}
	defer tracker.Close()

	// river sends the full state right after the status objects are created
	if err := wl.Roundtrip(); err != nil {
		return fmt.Errorf("failed to collect status: %w", err)
	}

	snap := tracker.Snapshot()
	if statusJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	fmt.Fprint(cmd.OutOrStdout(), ui.FormatSnapshot(snap))
	return nil
}
