package river

import (
	"errors"
	"sync"
)

type fakeObject struct {
	id       uint32
	released bool
}

func (o *fakeObject) ID() uint32     { return o.id }
func (o *fakeObject) Release() error { o.released = true; return nil }

type fakeDestroyer struct {
	destroyed int
}

func (d *fakeDestroyer) Destroy() error { d.destroyed++; return nil }

type fakeStatusManager struct {
	fakeDestroyer
	outputListeners map[uint32]OutputStatusListener
	outputStatuses  map[uint32]*fakeDestroyer
	seatListener    SeatStatusListener
	seatStatus      *fakeDestroyer
	seatRequests    int
	seatErr         error
}

func (m *fakeStatusManager) GetOutputStatus(output Object, l OutputStatusListener) (Destroyer, error) {
	if m.outputListeners == nil {
		m.outputListeners = make(map[uint32]OutputStatusListener)
		m.outputStatuses = make(map[uint32]*fakeDestroyer)
	}
	m.outputListeners[output.ID()] = l
	d := &fakeDestroyer{}
	m.outputStatuses[output.ID()] = d
	return d, nil
}

func (m *fakeStatusManager) GetSeatStatus(seat Object, l SeatStatusListener) (Destroyer, error) {
	m.seatRequests++
	if m.seatErr != nil {
		return nil, m.seatErr
	}
	m.seatListener = l
	m.seatStatus = &fakeDestroyer{}
	return m.seatStatus, nil
}

type fakeControl struct {
	fakeDestroyer
	pending   []string
	commands  [][]string
	callbacks []CommandCallbackListener
	failAdd   bool
}

func (c *fakeControl) AddArgument(arg string) error {
	if c.failAdd {
		return errors.New("broken pipe")
	}
	c.pending = append(c.pending, arg)
	return nil
}

func (c *fakeControl) RunCommand(seat Object, l CommandCallbackListener) error {
	c.commands = append(c.commands, c.pending)
	c.pending = nil
	c.callbacks = append(c.callbacks, l)
	return nil
}

// fakeTransport announces a fixed list of globals and replays queued events
// on Dispatch.
type fakeTransport struct {
	globals      []Global
	roundtripErr error

	statusManager *fakeStatusManager
	control       *fakeControl
	seat          *fakeObject
	binds         map[string]int
	boundVersions map[string]uint32

	mu     sync.Mutex
	queue  []func()
	closed bool
	closes int
	wake   chan struct{}
}

func newFakeTransport(globals ...Global) *fakeTransport {
	return &fakeTransport{
		globals:       globals,
		statusManager: &fakeStatusManager{},
		control:       &fakeControl{},
		seat:          &fakeObject{id: 900},
		binds:         make(map[string]int),
		boundVersions: make(map[string]uint32),
		wake:          make(chan struct{}, 1),
	}
}

func riverGlobals() []Global {
	return []Global{
		{Name: 1, Interface: "wl_compositor", Version: 6},
		{Name: 2, Interface: StatusManagerInterface, Version: 4},
		{Name: 3, Interface: ControlInterface, Version: 1},
		{Name: 4, Interface: SeatInterface, Version: 9},
	}
}

func (t *fakeTransport) OnGlobal(handler func(Global)) {
	for _, g := range t.globals {
		handler(g)
	}
}

func (t *fakeTransport) Roundtrip() error { return t.roundtripErr }

// push queues an event for the next Dispatch
func (t *fakeTransport) push(fn func()) {
	t.mu.Lock()
	t.queue = append(t.queue, fn)
	t.mu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *fakeTransport) Dispatch() error {
	for {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return errors.New("connection closed")
		}
		if len(t.queue) > 0 {
			fn := t.queue[0]
			t.queue = t.queue[1:]
			t.mu.Unlock()
			fn()
			return nil
		}
		t.mu.Unlock()
		<-t.wake
	}
}

func (t *fakeTransport) BindStatusManager(g Global, version uint32) (StatusManager, error) {
	t.binds[g.Interface]++
	t.boundVersions[g.Interface] = version
	return t.statusManager, nil
}

func (t *fakeTransport) BindControl(g Global, version uint32) (Control, error) {
	t.binds[g.Interface]++
	t.boundVersions[g.Interface] = version
	return t.control, nil
}

func (t *fakeTransport) BindSeat(g Global, version uint32) (SeatObject, error) {
	t.binds[g.Interface]++
	t.boundVersions[g.Interface] = version
	return t.seat, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.closes++
	t.mu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
	return nil
}

// fakeResolver resolves identifiers from a fixed table
type fakeResolver map[string]uint32

func (r fakeResolver) ResolveOutput(id string) (Object, bool) {
	objID, ok := r[id]
	if !ok {
		return nil, false
	}
	return &fakeObject{id: objID}, true
}
