package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/riverbridge/internal/config"
	"github.com/bnema/riverbridge/internal/ui"
	"github.com/bnema/riverbridge/internal/wayland"
	"github.com/spf13/cobra"
)

// OutputsInfo is the JSON shape of the outputs command
type OutputsInfo struct {
	Outputs []wayland.OutputInfo `json:"outputs"`
	Error   string               `json:"error,omitempty"`
}

var outputsJSON bool

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "List the compositor's outputs",
	Long:  `List the wl_output globals with the identifiers accepted by the status and watch commands.`,
	RunE:  runOutputs,
}

func init() {
	outputsCmd.Flags().BoolVar(&outputsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(outputsCmd)
}

func runOutputs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	wl, err := wayland.Connect(resolveDisplay(config.Get()))
	if err != nil {
		if outputsJSON {
			return json.NewEncoder(out).Encode(OutputsInfo{Error: err.Error()})
		}
		return err
	}
	defer wl.Close()

	outputs := wl.Outputs()
	if outputsJSON {
		return json.NewEncoder(out).Encode(OutputsInfo{Outputs: outputs})
	}

	fmt.Fprint(out, ui.FormatOutputs(outputs))
	return nil
}
