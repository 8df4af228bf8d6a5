// Package wayland connects to the compositor with go-wayland and exposes the
// connection as a river transport and output resolver.
package wayland

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/riverbridge/internal/logger"
	"github.com/bnema/riverbridge/internal/protocols"
	"github.com/bnema/riverbridge/internal/river"
	"github.com/charmbracelet/log"
	"github.com/rajveermalviya/go-wayland/wayland/client"
)

const (
	outputInterface = "wl_output"
	// wl_output v4 adds the connector name event
	outputVersion uint32 = 4
)

var (
	errNotProxy      = errors.New("object does not belong to this connection")
	errNotDispatcher = errors.New("object cannot receive events")
)

// OutputInfo describes a wl_output announced by the compositor
type OutputInfo struct {
	Index       int    `json:"index"`
	GlobalName  uint32 `json:"global"`
	ObjectID    uint32 `json:"object_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     uint32 `json:"version"`

	proxy *client.Output
}

// Identifier returns the connector name, or the index for outputs that
// predate wl_output v4.
func (o *OutputInfo) Identifier() string {
	if o.Name != "" {
		return o.Name
	}
	return fmt.Sprint(o.Index)
}

// Client is a Wayland connection tracking the registry and every wl_output.
// It is driven from a single dispatch goroutine; only Close may be called
// from elsewhere.
type Client struct {
	display  *client.Display
	ctx      *client.Context
	registry *client.Registry
	log      *log.Logger

	globals  []river.Global
	onGlobal func(river.Global)

	outputs   []*OutputInfo
	nextIndex int

	closeOnce sync.Once
	closeErr  error
}

// Connect opens the display (WAYLAND_DISPLAY when empty) and waits for the
// initial globals and output descriptions.
func Connect(display string) (*Client, error) {
	d, err := client.Connect(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Wayland display: %w", err)
	}

	c := &Client{
		display: d,
		ctx:     d.Context(),
		log:     logger.WithPrefix("wayland"),
	}
	d.SetErrorHandler(func(e client.DisplayErrorEvent) {
		c.log.Error("Protocol error", "code", e.Code, "message", e.Message)
	})

	registry, err := d.GetRegistry()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to get registry: %w", err)
	}
	c.registry = registry
	registry.SetGlobalHandler(c.handleGlobal)
	registry.SetGlobalRemoveHandler(c.handleGlobalRemove)

	// First round-trip announces globals, the second delivers output names
	for i := 0; i < 2; i++ {
		if err := c.Roundtrip(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	c.log.Debug("Connected", "globals", len(c.globals), "outputs", len(c.outputs))
	return c, nil
}

func (c *Client) handleGlobal(e client.RegistryGlobalEvent) {
	g := river.Global{Name: e.Name, Interface: e.Interface, Version: e.Version}
	c.globals = append(c.globals, g)

	if g.Interface == outputInterface {
		if err := c.bindOutput(g); err != nil {
			c.log.Warn("Failed to bind output", "global", g.Name, "err", err)
		}
	}

	if c.onGlobal != nil {
		c.onGlobal(g)
	}
}

func (c *Client) handleGlobalRemove(e client.RegistryGlobalRemoveEvent) {
	for i, g := range c.globals {
		if g.Name == e.Name {
			c.globals = append(c.globals[:i:i], c.globals[i+1:]...)
			break
		}
	}
	for i, o := range c.outputs {
		if o.GlobalName == e.Name {
			c.log.Debug("Output removed", "output", o.Identifier())
			c.releaseOutput(o)
			c.outputs = append(c.outputs[:i:i], c.outputs[i+1:]...)
			return
		}
	}
}

func (c *Client) bindOutput(g river.Global) error {
	version := min(g.Version, outputVersion)
	proxy := client.NewOutput(c.ctx)
	if err := c.registry.Bind(g.Name, g.Interface, version, proxy); err != nil {
		c.ctx.Unregister(proxy)
		return err
	}

	info := &OutputInfo{
		Index:      c.nextIndex,
		GlobalName: g.Name,
		ObjectID:   proxy.ID(),
		Version:    version,
		proxy:      proxy,
	}
	c.nextIndex++
	proxy.SetNameHandler(func(e client.OutputNameEvent) {
		info.Name = e.Name
	})
	proxy.SetDescriptionHandler(func(e client.OutputDescriptionEvent) {
		info.Description = e.Description
	})

	c.outputs = append(c.outputs, info)
	return nil
}

func (c *Client) releaseOutput(o *OutputInfo) {
	if o.Version >= 3 {
		if err := o.proxy.Release(); err != nil {
			c.log.Debug("Failed to release output", "output", o.Identifier(), "err", err)
		}
		return
	}
	c.ctx.Unregister(o.proxy)
}

// Outputs returns the known outputs in announcement order
func (c *Client) Outputs() []OutputInfo {
	out := make([]OutputInfo, len(c.outputs))
	for i, o := range c.outputs {
		out[i] = *o
	}
	return out
}

// OutputNames returns the identifier of every known output
func (c *Client) OutputNames() []string {
	names := make([]string, len(c.outputs))
	for i, o := range c.outputs {
		names[i] = o.Identifier()
	}
	return names
}

// ResolveOutput implements river.OutputResolver. A connector name wins over
// an index.
func (c *Client) ResolveOutput(id string) (river.Object, bool) {
	o := findOutput(c.outputs, id)
	if o == nil {
		return nil, false
	}
	return o.proxy, true
}

func findOutput(outputs []*OutputInfo, id string) *OutputInfo {
	for _, o := range outputs {
		if o.Name != "" && o.Name == id {
			return o
		}
	}
	for _, o := range outputs {
		if fmt.Sprint(o.Index) == id {
			return o
		}
	}
	return nil
}

// OnGlobal implements river.Transport
func (c *Client) OnGlobal(handler func(river.Global)) {
	c.onGlobal = handler
	for _, g := range append([]river.Global(nil), c.globals...) {
		handler(g)
	}
}

// Roundtrip sends wl_display.sync and dispatches until its callback fires
func (c *Client) Roundtrip() error {
	cb, err := c.display.Sync()
	if err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	done := false
	cb.SetDoneHandler(func(client.CallbackDoneEvent) {
		done = true
	})
	defer c.ctx.Unregister(cb)

	for !done {
		if err := c.Dispatch(); err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
	}
	return nil
}

// Dispatch implements river.Transport. Events still in flight for objects
// already destroyed on this side are dropped, like libwayland zombies.
func (c *Client) Dispatch() error {
	senderID, opcode, fd, data, err := c.ctx.ReadMsg()
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}

	proxy := c.ctx.GetProxy(senderID)
	if proxy == nil {
		c.log.Debug("Dropping event for destroyed object", "object", senderID, "opcode", opcode)
		return nil
	}
	d, ok := proxy.(client.Dispatcher)
	if !ok {
		return fmt.Errorf("%w: object %d", errNotDispatcher, senderID)
	}
	d.Dispatch(opcode, fd, data)
	return nil
}

// BindStatusManager implements river.Transport
func (c *Client) BindStatusManager(g river.Global, version uint32) (river.StatusManager, error) {
	m := protocols.NewRiverStatusManager(c.ctx)
	if err := c.registry.Bind(g.Name, g.Interface, version, m); err != nil {
		c.ctx.Unregister(m)
		return nil, err
	}
	return &statusManager{proxy: m}, nil
}

// BindControl implements river.Transport
func (c *Client) BindControl(g river.Global, version uint32) (river.Control, error) {
	ctl := protocols.NewRiverControl(c.ctx)
	if err := c.registry.Bind(g.Name, g.Interface, version, ctl); err != nil {
		c.ctx.Unregister(ctl)
		return nil, err
	}
	return &control{proxy: ctl}, nil
}

// BindSeat implements river.Transport
func (c *Client) BindSeat(g river.Global, version uint32) (river.SeatObject, error) {
	s := client.NewSeat(c.ctx)
	if err := c.registry.Bind(g.Name, g.Interface, version, s); err != nil {
		c.ctx.Unregister(s)
		return nil, err
	}
	return &seat{Seat: s, version: version}, nil
}

// Close closes the connection. It is safe to call from any goroutine and
// unblocks a pending Dispatch.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ctx.Close()
	})
	return c.closeErr
}

type statusManager struct {
	proxy *protocols.RiverStatusManager
}

func (m *statusManager) Destroy() error { return m.proxy.Destroy() }

func (m *statusManager) GetOutputStatus(output river.Object, l river.OutputStatusListener) (river.Destroyer, error) {
	p, ok := output.(client.Proxy)
	if !ok {
		return nil, errNotProxy
	}
	st, err := m.proxy.GetRiverOutputStatus(p)
	if err != nil {
		return nil, err
	}
	st.SetFocusedTagsHandler(l.FocusedTags)
	st.SetViewTagsHandler(l.ViewTags)
	st.SetUrgentTagsHandler(l.UrgentTags)
	st.SetLayoutNameHandler(l.LayoutName)
	st.SetLayoutNameClearHandler(l.LayoutNameClear)
	return st, nil
}

func (m *statusManager) GetSeatStatus(s river.Object, l river.SeatStatusListener) (river.Destroyer, error) {
	p, ok := s.(client.Proxy)
	if !ok {
		return nil, errNotProxy
	}
	st, err := m.proxy.GetRiverSeatStatus(p)
	if err != nil {
		return nil, err
	}
	st.SetFocusedOutputHandler(l.FocusedOutput)
	st.SetUnfocusedOutputHandler(l.UnfocusedOutput)
	st.SetFocusedViewHandler(l.FocusedView)
	st.SetModeHandler(l.Mode)
	return st, nil
}

type control struct {
	proxy *protocols.RiverControl
}

func (c *control) Destroy() error               { return c.proxy.Destroy() }
func (c *control) AddArgument(arg string) error { return c.proxy.AddArgument(arg) }

func (c *control) RunCommand(s river.Object, l river.CommandCallbackListener) error {
	p, ok := s.(client.Proxy)
	if !ok {
		return errNotProxy
	}
	cb, err := c.proxy.RunCommand(p)
	if err != nil {
		return err
	}
	cb.SetSuccessHandler(l.Success)
	cb.SetFailureHandler(l.Failure)
	return nil
}

// seat wraps wl_seat; release exists from version 5
type seat struct {
	*client.Seat
	version uint32
}

func (s *seat) Release() error {
	if s.version >= 5 {
		return s.Seat.Release()
	}
	s.Context().Unregister(s.Seat)
	return nil
}
