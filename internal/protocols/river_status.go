package protocols

import (
	"github.com/bnema/riverbridge/internal/logger"
	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// Protocol interface names
const (
	RiverStatusManagerInterface = "zriver_status_manager_v1"
	RiverOutputStatusInterface  = "zriver_output_status_v1"
	RiverSeatStatusInterface    = "zriver_seat_status_v1"
)

// zriver_status_manager_v1 requests
const (
	statusManagerDestroy uint32 = iota
	statusManagerGetRiverOutputStatus
	statusManagerGetRiverSeatStatus
)

// zriver_output_status_v1 events
const (
	outputStatusFocusedTags uint32 = iota
	outputStatusViewTags
	outputStatusUrgentTags
	outputStatusLayoutName
	outputStatusLayoutNameClear
)

// zriver_seat_status_v1 events
const (
	seatStatusFocusedOutput uint32 = iota
	seatStatusUnfocusedOutput
	seatStatusFocusedView
	seatStatusMode
)

// destroyRequest is opcode 0 on every river object
const destroyRequest uint32 = 0

var (
	_ client.Dispatcher = (*RiverStatusManager)(nil)
	_ client.Dispatcher = (*RiverOutputStatus)(nil)
	_ client.Dispatcher = (*RiverSeatStatus)(nil)
)

// RiverStatusManager creates per-output and per-seat status objects
type RiverStatusManager struct {
	client.BaseProxy
}

// NewRiverStatusManager registers a status manager proxy ready to be bound
func NewRiverStatusManager(ctx *client.Context) *RiverStatusManager {
	m := &RiverStatusManager{}
	ctx.Register(m)
	return m
}

// Destroy destroys the status manager. Existing status objects stay valid.
func (m *RiverStatusManager) Destroy() error {
	defer m.Context().Unregister(m)
	return m.Context().WriteMsg(newRequest(m.ID(), statusManagerDestroy).bytes(), nil)
}

// GetRiverOutputStatus creates the status object of a wl_output
func (m *RiverStatusManager) GetRiverOutputStatus(output client.Proxy) (*RiverOutputStatus, error) {
	status := NewRiverOutputStatus(m.Context())
	req := newRequest(m.ID(), statusManagerGetRiverOutputStatus)
	req.putUint32(status.ID())
	req.putUint32(output.ID())
	if err := m.Context().WriteMsg(req.bytes(), nil); err != nil {
		m.Context().Unregister(status)
		return nil, err
	}
	return status, nil
}

// GetRiverSeatStatus creates the status object of a wl_seat
func (m *RiverStatusManager) GetRiverSeatStatus(seat client.Proxy) (*RiverSeatStatus, error) {
	status := NewRiverSeatStatus(m.Context())
	req := newRequest(m.ID(), statusManagerGetRiverSeatStatus)
	req.putUint32(status.ID())
	req.putUint32(seat.ID())
	if err := m.Context().WriteMsg(req.bytes(), nil); err != nil {
		m.Context().Unregister(status)
		return nil, err
	}
	return status, nil
}

// Dispatch handles incoming events (the status manager has no events)
func (m *RiverStatusManager) Dispatch(_ uint32, _ int, _ []byte) {}

// RiverOutputStatus receives tag and layout updates for one output
type RiverOutputStatus struct {
	client.BaseProxy
	focusedTagsHandler     func(tags uint32)
	viewTagsHandler        func(tags []byte)
	urgentTagsHandler      func(tags uint32)
	layoutNameHandler      func(name string)
	layoutNameClearHandler func()
}

func NewRiverOutputStatus(ctx *client.Context) *RiverOutputStatus {
	s := &RiverOutputStatus{}
	ctx.Register(s)
	return s
}

func (s *RiverOutputStatus) SetFocusedTagsHandler(f func(tags uint32)) { s.focusedTagsHandler = f }
func (s *RiverOutputStatus) SetViewTagsHandler(f func(tags []byte))    { s.viewTagsHandler = f }
func (s *RiverOutputStatus) SetUrgentTagsHandler(f func(tags uint32))  { s.urgentTagsHandler = f }
func (s *RiverOutputStatus) SetLayoutNameHandler(f func(name string))  { s.layoutNameHandler = f }
func (s *RiverOutputStatus) SetLayoutNameClearHandler(f func())        { s.layoutNameClearHandler = f }

// Destroy stops the status updates of this output
func (s *RiverOutputStatus) Destroy() error {
	defer s.Context().Unregister(s)
	return s.Context().WriteMsg(newRequest(s.ID(), destroyRequest).bytes(), nil)
}

// Dispatch decodes one event. The view tags slice aliases the receive
// buffer and is only valid during the handler call.
func (s *RiverOutputStatus) Dispatch(opcode uint32, _ int, data []byte) {
	r := &eventReader{data: data}
	switch opcode {
	case outputStatusFocusedTags:
		tags := r.uint32()
		if r.err == nil && s.focusedTagsHandler != nil {
			s.focusedTagsHandler(tags)
		}
	case outputStatusViewTags:
		tags := r.array()
		if r.err == nil && s.viewTagsHandler != nil {
			s.viewTagsHandler(tags)
		}
	case outputStatusUrgentTags:
		tags := r.uint32()
		if r.err == nil && s.urgentTagsHandler != nil {
			s.urgentTagsHandler(tags)
		}
	case outputStatusLayoutName:
		name := r.string()
		if r.err == nil && s.layoutNameHandler != nil {
			s.layoutNameHandler(name)
		}
	case outputStatusLayoutNameClear:
		if s.layoutNameClearHandler != nil {
			s.layoutNameClearHandler()
		}
	default:
		logger.Debugf("zriver_output_status_v1@%d: unknown opcode %d", s.ID(), opcode)
	}
	if r.err != nil {
		logger.Warnf("zriver_output_status_v1@%d: opcode %d: %v", s.ID(), opcode, r.err)
	}
}

// RiverSeatStatus receives focus and mode updates for one seat
type RiverSeatStatus struct {
	client.BaseProxy
	focusedOutputHandler   func(outputID uint32)
	unfocusedOutputHandler func(outputID uint32)
	focusedViewHandler     func(title string)
	modeHandler            func(name string)
}

func NewRiverSeatStatus(ctx *client.Context) *RiverSeatStatus {
	s := &RiverSeatStatus{}
	ctx.Register(s)
	return s
}

func (s *RiverSeatStatus) SetFocusedOutputHandler(f func(outputID uint32))   { s.focusedOutputHandler = f }
func (s *RiverSeatStatus) SetUnfocusedOutputHandler(f func(outputID uint32)) { s.unfocusedOutputHandler = f }
func (s *RiverSeatStatus) SetFocusedViewHandler(f func(title string))        { s.focusedViewHandler = f }
func (s *RiverSeatStatus) SetModeHandler(f func(name string))                { s.modeHandler = f }

func (s *RiverSeatStatus) Destroy() error {
	defer s.Context().Unregister(s)
	return s.Context().WriteMsg(newRequest(s.ID(), destroyRequest).bytes(), nil)
}

// Dispatch decodes one event. Output arguments are passed as object ids.
func (s *RiverSeatStatus) Dispatch(opcode uint32, _ int, data []byte) {
	r := &eventReader{data: data}
	switch opcode {
	case seatStatusFocusedOutput:
		id := r.uint32()
		if r.err == nil && s.focusedOutputHandler != nil {
			s.focusedOutputHandler(id)
		}
	case seatStatusUnfocusedOutput:
		id := r.uint32()
		if r.err == nil && s.unfocusedOutputHandler != nil {
			s.unfocusedOutputHandler(id)
		}
	case seatStatusFocusedView:
		title := r.string()
		if r.err == nil && s.focusedViewHandler != nil {
			s.focusedViewHandler(title)
		}
	case seatStatusMode:
		name := r.string()
		if r.err == nil && s.modeHandler != nil {
			s.modeHandler(name)
		}
	default:
		logger.Debugf("zriver_seat_status_v1@%d: unknown opcode %d", s.ID(), opcode)
	}
	if r.err != nil {
		logger.Warnf("zriver_seat_status_v1@%d: opcode %d: %v", s.ID(), opcode, r.err)
	}
}
