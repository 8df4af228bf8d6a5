package river

import (
	"fmt"

	"github.com/bnema/riverbridge/internal/future"
	"github.com/charmbracelet/log"
)

// Submit sends a command made of args to the compositor on the session
// seat. The returned future settles with the command output, or with a
// *CommandError carrying the compositor's diagnostic. No timeout applies.
func (s *Session) Submit(args ...string) (*future.Future[string], error) {
	if !s.Valid() {
		return nil, ErrSessionInvalid
	}
	if len(args) == 0 {
		return nil, ErrNoArguments
	}
	if s.seatObject == nil {
		return nil, ErrNoSeat
	}

	for _, arg := range args {
		if err := s.control.AddArgument(arg); err != nil {
			return nil, fmt.Errorf("add argument %q: %w", arg, err)
		}
	}

	f := future.New[string]()
	cb := &commandCallback{result: f, args: args, log: s.log}
	if err := s.control.RunCommand(s.seatObject, cb); err != nil {
		return nil, fmt.Errorf("run command: %w", err)
	}
	s.log.Debug("Command sent", "args", args)
	return f, nil
}

// commandCallback settles the future of one command
type commandCallback struct {
	result *future.Future[string]
	args   []string
	log    *log.Logger
}

func (c *commandCallback) Success(output string) {
	if !c.result.Resolve(output) {
		c.log.Warn("Ignoring duplicate command reply", "args", c.args)
	}
}

func (c *commandCallback) Failure(message string) {
	if !c.result.Reject(&CommandError{Diagnostic: message}) {
		c.log.Warn("Ignoring duplicate command reply", "args", c.args)
	}
}
