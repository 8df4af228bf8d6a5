//go:build !pam

package auth

// unsupportedBackend is used in builds without libpam
type unsupportedBackend struct{}

// NewBackend returns a backend that rejects every attempt. Build with
// -tags pam for real authentication.
func NewBackend() Backend { return unsupportedBackend{} }

func (unsupportedBackend) Check(_, username, _ string) error {
	return &AuthError{Username: username, Diagnostic: "built without PAM support"}
}
