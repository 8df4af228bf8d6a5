// Package auth verifies account passwords off the dispatch goroutine and
// delivers the verdict through a future.
package auth

import (
	"errors"
	"fmt"
	"os/user"
	"strconv"

	"github.com/bnema/riverbridge/internal/future"
	"github.com/bnema/riverbridge/internal/logger"
	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sys/unix"
)

// DefaultService is the PAM service used when none is configured
const DefaultService = "riverbridge"

// Backend checks one username/password pair. Check blocks and may be slow.
type Backend interface {
	Check(service, username, password string) error
}

// AuthError carries the diagnostic of a rejected or failed authentication
type AuthError struct {
	Username   string
	Diagnostic string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %s", e.Username, e.Diagnostic)
}

// Authenticator runs password checks against a Backend
type Authenticator struct {
	backend Backend
	service string
	log     *log.Logger

	// currentUser is swapped in tests
	currentUser func() (string, error)
}

// New returns an Authenticator for a PAM service. An empty service falls
// back to DefaultService.
func New(backend Backend, service string) *Authenticator {
	if service == "" {
		service = DefaultService
	}
	return &Authenticator{
		backend:     backend,
		service:     service,
		log:         logger.WithPrefix("auth"),
		currentUser: CurrentUser,
	}
}

// Service returns the PAM service name checks run under
func (a *Authenticator) Service() string { return a.service }

// Authenticate checks password for username on a dedicated goroutine. An
// empty username means the invoking account. The future resolves on success
// and is rejected with an *AuthError otherwise.
func (a *Authenticator) Authenticate(username, password string) *future.Future[struct{}] {
	f := future.New[struct{}]()

	go func() {
		if username == "" {
			name, err := a.currentUser()
			if err != nil {
				f.Reject(&AuthError{Diagnostic: err.Error()})
				return
			}
			username = name
		}

		var checkErr error
		if r := panics.Try(func() {
			checkErr = a.backend.Check(a.service, username, password)
		}); r != nil {
			a.log.Error("Authentication backend panicked", "err", r.AsError())
			checkErr = fmt.Errorf("backend panicked: %v", r.Value)
		}

		if checkErr != nil {
			a.log.Debug("Authentication rejected", "user", username, "service", a.service)
			var authErr *AuthError
			if errors.As(checkErr, &authErr) {
				f.Reject(authErr)
				return
			}
			f.Reject(&AuthError{Username: username, Diagnostic: checkErr.Error()})
			return
		}

		a.log.Debug("Authentication succeeded", "user", username, "service", a.service)
		f.Resolve(struct{}{})
	}()

	return f
}

// CurrentUser resolves the login name of the real user id
func CurrentUser() (string, error) {
	uid := unix.Getuid()
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return "", fmt.Errorf("failed to look up uid %d: %w", uid, err)
	}
	return u.Username, nil
}
