package wayland

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/riverbridge/internal/logger"
	"github.com/bnema/riverbridge/internal/protocols"
	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompositor is the server end of a Wayland socket. It never reads the
// client's requests, it only writes events.
type fakeCompositor struct {
	t    *testing.T
	conn net.Conn
}

// dialFake connects a go-wayland context to a fresh fake compositor
func dialFake(t *testing.T) (*Client, *fakeCompositor) {
	t.Helper()

	dir, err := os.MkdirTemp("", "riverbridge")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	ln, err := net.Listen("unix", filepath.Join(dir, "wayland-test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		if conn, err := ln.Accept(); err == nil {
			accepted <- conn
		}
	}()

	t.Setenv("XDG_RUNTIME_DIR", dir)
	t.Setenv("WAYLAND_DISPLAY", "wayland-test")
	d, err := client.Connect("")
	require.NoError(t, err)

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("fake compositor did not accept the connection")
	}

	c := &Client{display: d, ctx: d.Context(), log: logger.WithPrefix("wayland")}
	t.Cleanup(func() {
		_ = c.Close()
		_ = conn.Close()
	})
	return c, &fakeCompositor{t: t, conn: conn}
}

// send writes one event. Arguments are uint32, string or []byte (wl_array).
func (f *fakeCompositor) send(sender, opcode uint32, args ...any) {
	f.t.Helper()

	body := []byte{}
	pad := func(n int) { body = append(body, make([]byte, (4-n%4)%4)...) }
	for _, a := range args {
		switch v := a.(type) {
		case uint32:
			body = binary.NativeEndian.AppendUint32(body, v)
		case string:
			body = binary.NativeEndian.AppendUint32(body, uint32(len(v)+1))
			body = append(body, v...)
			body = append(body, 0)
			pad(len(v) + 1)
		case []byte:
			body = binary.NativeEndian.AppendUint32(body, uint32(len(v)))
			body = append(body, v...)
			pad(len(v))
		default:
			f.t.Fatalf("unsupported argument %T", a)
		}
	}

	msg := binary.NativeEndian.AppendUint32(nil, sender)
	msg = binary.NativeEndian.AppendUint32(msg, uint32(8+len(body))<<16|opcode)
	_, err := f.conn.Write(append(msg, body...))
	require.NoError(f.t, err)
}

// recorder implements every river listener and logs the calls it receives
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) FocusedTags(tags uint32) { r.add("focused_tags %d", tags) }
func (r *recorder) UrgentTags(tags uint32)  { r.add("urgent_tags %d", tags) }
func (r *recorder) LayoutName(name string)  { r.add("layout_name %s", name) }
func (r *recorder) LayoutNameClear()        { r.add("layout_name_clear") }

func (r *recorder) ViewTags(raw []byte) {
	tags := make([]uint32, len(raw)/4)
	for i := range tags {
		tags[i] = binary.NativeEndian.Uint32(raw[i*4:])
	}
	r.add("view_tags %v", tags)
}

func (r *recorder) FocusedOutput(id uint32)   { r.add("focused_output %d", id) }
func (r *recorder) UnfocusedOutput(id uint32) { r.add("unfocused_output %d", id) }
func (r *recorder) FocusedView(title string)  { r.add("focused_view %q", title) }
func (r *recorder) Mode(name string)          { r.add("mode %s", name) }

func (r *recorder) Success(output string)  { r.add("success %q", output) }
func (r *recorder) Failure(message string) { r.add("failure %q", message) }

func dispatchN(t *testing.T, c *Client, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, c.Dispatch())
	}
}

func TestOutputStatusOverSocket(t *testing.T) {
	c, fc := dialFake(t)
	m := &statusManager{proxy: protocols.NewRiverStatusManager(c.ctx)}
	output := client.NewOutput(c.ctx)

	rec := &recorder{}
	st, err := m.GetOutputStatus(output, rec)
	require.NoError(t, err)
	id := st.(*protocols.RiverOutputStatus).ID()

	tags := binary.NativeEndian.AppendUint32(nil, 1)
	tags = binary.NativeEndian.AppendUint32(tags, 6)
	fc.send(id, 0, uint32(5))
	fc.send(id, 1, tags)
	fc.send(id, 2, uint32(4))
	fc.send(id, 3, "rivertile")
	fc.send(id, 4)
	dispatchN(t, c, 5)

	assert.Equal(t, []string{
		"focused_tags 5",
		"view_tags [1 6]",
		"urgent_tags 4",
		"layout_name rivertile",
		"layout_name_clear",
	}, rec.calls)
}

func TestSeatStatusOverSocket(t *testing.T) {
	c, fc := dialFake(t)
	m := &statusManager{proxy: protocols.NewRiverStatusManager(c.ctx)}
	s := &seat{Seat: client.NewSeat(c.ctx), version: 7}

	rec := &recorder{}
	st, err := m.GetSeatStatus(s, rec)
	require.NoError(t, err)
	id := st.(*protocols.RiverSeatStatus).ID()

	fc.send(id, 0, uint32(12))
	fc.send(id, 2, "")
	fc.send(id, 3, "normal")
	fc.send(id, 1, uint32(12))
	dispatchN(t, c, 4)

	assert.Equal(t, []string{
		"focused_output 12",
		`focused_view ""`,
		"mode normal",
		"unfocused_output 12",
	}, rec.calls)
}

func TestCommandCallbackOverSocket(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint32
		reply  string
		want   string
	}{
		{name: "success", opcode: 0, reply: "ok", want: `success "ok"`},
		{name: "empty success", opcode: 0, reply: "", want: `success ""`},
		{name: "failure", opcode: 1, reply: "unknown command: frobnicate", want: `failure "unknown command: frobnicate"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fc := dialFake(t)
			s := &seat{Seat: client.NewSeat(c.ctx), version: 7}
			ctl := &control{proxy: protocols.NewRiverControl(c.ctx)}

			rec := &recorder{}
			require.NoError(t, ctl.AddArgument("spawn"))
			require.NoError(t, ctl.RunCommand(s, rec))

			// The callback is the object registered right after the control
			cbID := ctl.proxy.ID() + 1
			require.IsType(t, &protocols.RiverCommandCallback{}, c.ctx.GetProxy(cbID))

			fc.send(cbID, tt.opcode, tt.reply)
			dispatchN(t, c, 1)
			assert.Equal(t, []string{tt.want}, rec.calls)

			// The callback is gone after its reply; a stray second reply is dropped
			assert.Nil(t, c.ctx.GetProxy(cbID))
			fc.send(cbID, tt.opcode, tt.reply)
			dispatchN(t, c, 1)
			assert.Len(t, rec.calls, 1)
		})
	}
}

func TestDispatchDropsEventsForDestroyedObjects(t *testing.T) {
	c, fc := dialFake(t)
	m := &statusManager{proxy: protocols.NewRiverStatusManager(c.ctx)}

	gone := &recorder{}
	st, err := m.GetOutputStatus(client.NewOutput(c.ctx), gone)
	require.NoError(t, err)
	goneID := st.(*protocols.RiverOutputStatus).ID()

	live := &recorder{}
	other, err := m.GetOutputStatus(client.NewOutput(c.ctx), live)
	require.NoError(t, err)
	liveID := other.(*protocols.RiverOutputStatus).ID()

	require.NoError(t, st.Destroy())

	// The compositor had already queued these before seeing the destroy
	fc.send(goneID, 0, uint32(1))
	fc.send(goneID, 3, "monocle")
	fc.send(liveID, 0, uint32(2))
	dispatchN(t, c, 3)

	assert.Empty(t, gone.calls)
	assert.Equal(t, []string{"focused_tags 2"}, live.calls)
}

func TestDispatchAfterClose(t *testing.T) {
	c, _ := dialFake(t)
	require.NoError(t, c.Close())
	assert.Error(t, c.Dispatch())
}
