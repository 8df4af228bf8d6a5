package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/riverbridge/internal/config"
	"github.com/bnema/riverbridge/internal/logger"
	"github.com/bnema/riverbridge/internal/river"
	"github.com/bnema/riverbridge/internal/wayland"
	"github.com/spf13/cobra"
)

var (
	configFile  string
	logLevel    string
	displayName string

	rootCmd = &cobra.Command{
		Use:   "riverbridge",
		Short: "riverbridge - river compositor status and control",
		Long: `riverbridge talks to the river Wayland compositor through its status and
control protocols. It reports tags, layouts and seat focus per output and sends
commands to the compositor.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initRoot,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// reportedError marks an error whose diagnostic the command already printed
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Reported reports whether the command that returned err already showed it
// to the user
func Reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/riverbridge/riverbridge.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&displayName, "display", "", "Wayland display to connect to (default $WAYLAND_DISPLAY)")
}

func initRoot(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		config.SetConfigPath(configFile)
	}
	if err := config.Init(); err != nil {
		return err
	}

	// Flag wins over config, config wins over LOG_LEVEL
	level := logLevel
	if level == "" {
		level = config.Get().Logging.LogLevel
	}
	if level != "" && !logger.SetLevel(level) {
		return fmt.Errorf("invalid log level: %s", level)
	}
	return nil
}

// resolveDisplay picks the display from the flag, then the config
func resolveDisplay(cfg *config.Config) string {
	if displayName != "" {
		return displayName
	}
	return cfg.Wayland.Display
}

// connectRiver opens the Wayland connection and binds the river globals.
// The caller owns both and must close the session, which closes the client.
func connectRiver() (*wayland.Client, *river.Session, error) {
	cfg := config.Get()

	wl, err := wayland.Connect(resolveDisplay(cfg))
	if err != nil {
		return nil, nil, err
	}

	session := river.Connect(wl, river.WithSeatRequired(cfg.Wayland.RequireSeat))
	if !session.Valid() {
		_ = session.Close()
		missing := session.Missing()
		if len(missing) == 0 {
			return nil, nil, fmt.Errorf("%w: registry round-trip failed", river.ErrSessionInvalid)
		}
		return nil, nil, fmt.Errorf("%w: compositor does not offer %s",
			river.ErrSessionInvalid, strings.Join(missing, ", "))
	}
	return wl, session, nil
}
