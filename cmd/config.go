package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bnema/riverbridge/internal/config"
	"github.com/bnema/riverbridge/internal/logger"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage riverbridge configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		display := cfg.Wayland.Display
		if display == "" {
			display = "$WAYLAND_DISPLAY"
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Config file:\t%s\n", config.GetConfigPath())
		fmt.Fprintln(w, "[wayland]\t")
		fmt.Fprintf(w, "  display\t%s\n", display)
		fmt.Fprintf(w, "  require_seat\t%v\n", cfg.Wayland.RequireSeat)
		fmt.Fprintln(w, "[commands]\t")
		fmt.Fprintf(w, "  timeout\t%ds\n", cfg.Commands.Timeout)
		fmt.Fprintln(w, "[auth]\t")
		fmt.Fprintf(w, "  pam_service\t%s\n", cfg.Auth.PAMService)
		fmt.Fprintln(w, "[logging]\t")
		fmt.Fprintf(w, "  log_level\t%s\n", cfg.Logging.LogLevel)
		return w.Flush()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				logger.Infof("Configuration file already exists at: %s", configPath)
				logger.Info("Use --force to overwrite")
				return nil
			}
		}

		defaults := config.DefaultConfig
		config.Set(&defaults)
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration written to: %s", configPath)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
