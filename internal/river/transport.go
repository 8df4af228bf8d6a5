package river

// Interface names advertised by the compositor that the session binds.
const (
	StatusManagerInterface = "zriver_status_manager_v1"
	ControlInterface       = "zriver_control_v1"
	SeatInterface          = "wl_seat"
)

// Highest protocol versions this client understands. Globals are bound at
// min(offered, supported).
const (
	StatusManagerVersion uint32 = 4
	ControlVersion       uint32 = 1
	SeatVersion          uint32 = 8
)

// Global is a named, versioned capability announced during registry enumeration
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Object is a client-side handle to a compositor protocol object
type Object interface {
	ID() uint32
}

// Destroyer is a protocol object with an explicit destructor request
type Destroyer interface {
	Destroy() error
}

// SeatObject is a bound wl_seat
type SeatObject interface {
	Object
	Release() error
}

// Transport is the connected wire session the bridge runs on. All methods
// are called from the dispatch goroutine except Close.
type Transport interface {
	// OnGlobal installs the registry handler. Globals already announced
	// before the call are replayed to the handler.
	OnGlobal(handler func(Global))
	// Roundtrip blocks until every request sent so far has been processed
	// by the compositor and the resulting events were dispatched.
	Roundtrip() error
	// Dispatch blocks for and handles the next incoming event.
	Dispatch() error

	BindStatusManager(g Global, version uint32) (StatusManager, error)
	BindControl(g Global, version uint32) (Control, error)
	BindSeat(g Global, version uint32) (SeatObject, error)

	Close() error
}

// StatusManager is a bound zriver_status_manager_v1
type StatusManager interface {
	Destroyer
	GetOutputStatus(output Object, listener OutputStatusListener) (Destroyer, error)
	GetSeatStatus(seat Object, listener SeatStatusListener) (Destroyer, error)
}

// Control is a bound zriver_control_v1. Arguments accumulate on the control
// object until RunCommand consumes them.
type Control interface {
	Destroyer
	AddArgument(arg string) error
	RunCommand(seat Object, listener CommandCallbackListener) error
}

// OutputStatusListener receives zriver_output_status_v1 events. ViewTags
// gets the raw wl_array payload, which is only valid during the call.
type OutputStatusListener interface {
	FocusedTags(tags uint32)
	ViewTags(tags []byte)
	UrgentTags(tags uint32)
	LayoutName(name string)
	LayoutNameClear()
}

// SeatStatusListener receives zriver_seat_status_v1 events. Outputs are
// identified by their transport object id.
type SeatStatusListener interface {
	FocusedOutput(outputID uint32)
	UnfocusedOutput(outputID uint32)
	FocusedView(title string)
	Mode(name string)
}

// CommandCallbackListener receives the single reply of a
// zriver_command_callback_v1.
type CommandCallbackListener interface {
	Success(output string)
	Failure(message string)
}

// OutputResolver maps a physical-output identifier to a transport-level
// wl_output. Resolution may fail while the source has not seen the output.
type OutputResolver interface {
	ResolveOutput(id string) (Object, bool)
}
