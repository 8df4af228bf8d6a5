package protocols

import (
	"github.com/bnema/riverbridge/internal/logger"
	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// Protocol interface names
const (
	RiverControlInterface         = "zriver_control_v1"
	RiverCommandCallbackInterface = "zriver_command_callback_v1"
)

// zriver_control_v1 requests
const (
	controlDestroy uint32 = iota
	controlAddArgument
	controlRunCommand
)

// zriver_command_callback_v1 events
const (
	commandCallbackSuccess uint32 = iota
	commandCallbackFailure
)

var (
	_ client.Dispatcher = (*RiverControl)(nil)
	_ client.Dispatcher = (*RiverCommandCallback)(nil)
)

// RiverControl sends commands to the compositor. Arguments accumulate on
// the object until RunCommand consumes them.
type RiverControl struct {
	client.BaseProxy
}

// NewRiverControl registers a control proxy ready to be bound
func NewRiverControl(ctx *client.Context) *RiverControl {
	c := &RiverControl{}
	ctx.Register(c)
	return c
}

func (c *RiverControl) Destroy() error {
	defer c.Context().Unregister(c)
	return c.Context().WriteMsg(newRequest(c.ID(), controlDestroy).bytes(), nil)
}

// AddArgument appends one argument to the pending command
func (c *RiverControl) AddArgument(argument string) error {
	req := newRequest(c.ID(), controlAddArgument)
	req.putString(argument)
	return c.Context().WriteMsg(req.bytes(), nil)
}

// RunCommand executes the pending arguments on seat. The returned callback
// receives exactly one success or failure event.
func (c *RiverControl) RunCommand(seat client.Proxy) (*RiverCommandCallback, error) {
	callback := NewRiverCommandCallback(c.Context())
	req := newRequest(c.ID(), controlRunCommand)
	req.putUint32(seat.ID())
	req.putUint32(callback.ID())
	if err := c.Context().WriteMsg(req.bytes(), nil); err != nil {
		c.Context().Unregister(callback)
		return nil, err
	}
	return callback, nil
}

// Dispatch handles incoming events (control has no events)
func (c *RiverControl) Dispatch(_ uint32, _ int, _ []byte) {}

// RiverCommandCallback reports the outcome of one command. The compositor
// destroys it after the event, so it unregisters itself.
type RiverCommandCallback struct {
	client.BaseProxy
	successHandler func(output string)
	failureHandler func(message string)
}

func NewRiverCommandCallback(ctx *client.Context) *RiverCommandCallback {
	cb := &RiverCommandCallback{}
	ctx.Register(cb)
	return cb
}

func (cb *RiverCommandCallback) SetSuccessHandler(f func(output string))  { cb.successHandler = f }
func (cb *RiverCommandCallback) SetFailureHandler(f func(message string)) { cb.failureHandler = f }

func (cb *RiverCommandCallback) Dispatch(opcode uint32, _ int, data []byte) {
	r := &eventReader{data: data}
	switch opcode {
	case commandCallbackSuccess:
		output := r.string()
		if r.err == nil && cb.successHandler != nil {
			cb.successHandler(output)
		}
	case commandCallbackFailure:
		message := r.string()
		if r.err == nil && cb.failureHandler != nil {
			cb.failureHandler(message)
		}
	default:
		logger.Debugf("zriver_command_callback_v1@%d: unknown opcode %d", cb.ID(), opcode)
		return
	}
	if r.err != nil {
		logger.Warnf("zriver_command_callback_v1@%d: opcode %d: %v", cb.ID(), opcode, r.err)
	}

	// Destructor event
	if ctx := cb.Context(); ctx != nil {
		ctx.Unregister(cb)
	}
}
