package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/riverbridge/internal/auth"
	"github.com/bnema/riverbridge/internal/config"
	"github.com/bnema/riverbridge/internal/ui"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	authUser          string
	authPasswordStdin bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Check an account password with PAM",
	Long: `Prompt for a password and check it with PAM, the way a lock screen does.
Without --user the invoking account is checked. Requires a build with -tags pam.`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().StringVar(&authUser, "user", "", "Account to check (default: invoking user)")
	authCmd.Flags().BoolVar(&authPasswordStdin, "password-stdin", false, "Read the password from stdin instead of prompting")
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	var password string
	var err error
	if authPasswordStdin {
		password, err = readPassword(cmd.InOrStdin())
	} else {
		password, err = promptPassword(authUser)
	}
	if err != nil {
		return err
	}

	authenticator := auth.New(auth.NewBackend(), config.Get().Auth.PAMService)
	_, err = authenticator.Authenticate(authUser, password).Wait(cmd.Context())

	var authErr *auth.AuthError
	switch {
	case err == nil:
		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatResult(true, "Authenticated"))
		return nil
	case errors.As(err, &authErr):
		fmt.Fprintln(cmd.ErrOrStderr(), ui.FormatResult(false, authErr.Diagnostic))
		return &reportedError{err: err}
	default:
		return err
	}
}

func promptPassword(user string) (string, error) {
	title := "Password"
	if user != "" {
		title = fmt.Sprintf("Password for %s", user)
	}

	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("password prompt cancelled: %w", err)
	}
	return password, nil
}

// readPassword takes the first line of r without its line ending
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
