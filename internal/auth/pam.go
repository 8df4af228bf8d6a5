//go:build pam

package auth

import (
	"errors"

	"github.com/msteinert/pam"
)

// PAMBackend authenticates through libpam. Every prompt of the
// conversation is answered with the password.
type PAMBackend struct{}

// NewBackend returns the PAM backend
func NewBackend() Backend { return PAMBackend{} }

func (PAMBackend) Check(service, username, password string) error {
	tx, err := pam.StartFunc(service, username, func(style pam.Style, msg string) (string, error) {
		switch style {
		case pam.PromptEchoOff, pam.PromptEchoOn:
			return password, nil
		case pam.ErrorMsg, pam.TextInfo:
			return "", nil
		default:
			return "", errors.New("unrecognized PAM message style")
		}
	})
	if err != nil {
		return &AuthError{Username: username, Diagnostic: err.Error()}
	}
	if err := tx.Authenticate(0); err != nil {
		return &AuthError{Username: username, Diagnostic: err.Error()}
	}
	return nil
}
