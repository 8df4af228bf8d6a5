package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bnema/riverbridge/internal/config"
	"github.com/bnema/riverbridge/internal/river"
	"github.com/bnema/riverbridge/internal/ui"
	"github.com/spf13/cobra"
)

var runTimeout time.Duration

var runCmd = &cobra.Command{
	Use:   "run -- <command> [args...]",
	Short: "Send a command to river",
	Long: `Send a command to river on the current seat and print its output, the
same way riverctl does. Exits non-zero when river rejects the command.`,
	Example: `  riverbridge run -- set-focused-tags 4
  riverbridge run -- spawn foot`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

func init() {
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "How long to wait for the reply (default from config, 0s waits forever)")
	rootCmd.AddCommand(runCmd)
}

func runCommand(cmd *cobra.Command, args []string) error {
	_, session, err := connectRiver()
	if err != nil {
		return err
	}
	defer session.Close()

	reply, err := session.Submit(args...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if timeout := commandTimeout(cmd, config.Get()); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	output, err := river.Await(ctx, session, reply)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("no reply from river: %w", err)
	}
	if err != nil {
		return reportCommandError(cmd.ErrOrStderr(), err)
	}

	if output != "" {
		fmt.Fprintln(cmd.OutOrStdout(), output)
	}
	return nil
}

// commandTimeout prefers the flag when set explicitly
func commandTimeout(cmd *cobra.Command, cfg *config.Config) time.Duration {
	if cmd.Flags().Changed("timeout") {
		return runTimeout
	}
	return cfg.Commands.CommandTimeout()
}

// reportCommandError prints the diagnostic of a rejected command once and
// marks the error as reported. Other errors pass through.
func reportCommandError(w io.Writer, err error) error {
	var cmdErr *river.CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	fmt.Fprintln(w, ui.FormatResult(false, cmdErr.Diagnostic))
	return &reportedError{err: err}
}
