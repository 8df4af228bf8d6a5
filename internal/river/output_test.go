package river

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connected(t *testing.T) (*fakeTransport, *Session) {
	t.Helper()
	ft := newFakeTransport(riverGlobals()...)
	s := Connect(ft)
	require.True(t, s.Valid())
	return ft, s
}

func nativeArray(values ...uint32) []byte {
	raw := make([]byte, 0, len(values)*4)
	for _, v := range values {
		raw = binary.NativeEndian.AppendUint32(raw, v)
	}
	return raw
}

func TestOutputListenIdempotent(t *testing.T) {
	ft, s := connected(t)
	out := NewOutput("DP-1", fakeResolver{"DP-1": 10})

	require.NoError(t, out.Listen(s))
	require.NoError(t, out.Listen(s))

	assert.True(t, out.Listening())
	assert.Len(t, ft.statusManager.outputListeners, 1)

	var got []OutputEvent
	out.Subscribe(func(e OutputEvent) { got = append(got, e) })
	ft.statusManager.outputListeners[10].FocusedTags(4)

	assert.Equal(t, []OutputEvent{FocusedTagsEvent{Output: "DP-1", Tags: 4}}, got)
}

func TestOutputListenErrors(t *testing.T) {
	t.Run("nil session", func(t *testing.T) {
		out := NewOutput("DP-1", fakeResolver{"DP-1": 10})
		assert.ErrorIs(t, out.Listen(nil), ErrSessionInvalid)
	})

	t.Run("invalid session", func(t *testing.T) {
		s := Connect(newFakeTransport())
		out := NewOutput("DP-1", fakeResolver{"DP-1": 10})
		assert.ErrorIs(t, out.Listen(s), ErrSessionInvalid)
		assert.False(t, out.Listening())
	})

	t.Run("unresolved output stays failed", func(t *testing.T) {
		ft, s := connected(t)
		resolver := fakeResolver{}
		out := NewOutput("HDMI-A-1", resolver)

		assert.ErrorIs(t, out.Listen(s), ErrResolutionFailed)

		// Appearing later does not revive this instance
		resolver["HDMI-A-1"] = 11
		assert.ErrorIs(t, out.Listen(s), ErrResolutionFailed)
		assert.False(t, out.Listening())
		assert.Empty(t, ft.statusManager.outputListeners)
	})

	t.Run("nil resolver", func(t *testing.T) {
		_, s := connected(t)
		assert.ErrorIs(t, NewOutput("0", nil).Listen(s), ErrResolutionFailed)
	})
}

func TestOutputEventsInOrder(t *testing.T) {
	ft, s := connected(t)
	out := NewOutput("DP-1", fakeResolver{"DP-1": 10})
	require.NoError(t, out.Listen(s))

	var kinds []string
	out.Subscribe(func(e OutputEvent) { kinds = append(kinds, e.Kind()) })

	l := ft.statusManager.outputListeners[10]
	l.UrgentTags(1)
	l.LayoutName("rivertile")
	l.FocusedTags(2)
	l.ViewTags(nativeArray(1))
	l.LayoutNameClear()

	assert.Equal(t, []string{"urgent_tags", "layout_name", "focused_tags", "view_tags", "layout_name"}, kinds)
}

func TestViewTagsDecoding(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want []uint32
	}{
		{name: "empty", raw: nil, want: []uint32{}},
		{name: "zero length", raw: []byte{}, want: []uint32{}},
		{name: "three views", raw: nativeArray(1, 2, 1<<31), want: []uint32{1, 2, 1 << 31}},
		{name: "trailing partial element", raw: append(nativeArray(5), 0xff, 0xff), want: []uint32{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft, s := connected(t)
			out := NewOutput("DP-1", fakeResolver{"DP-1": 10})
			require.NoError(t, out.Listen(s))

			var got []ViewTagsEvent
			out.Subscribe(func(e OutputEvent) { got = append(got, e.(ViewTagsEvent)) })
			ft.statusManager.outputListeners[10].ViewTags(tt.raw)

			require.Len(t, got, 1)
			assert.NotNil(t, got[0].Tags)
			assert.Equal(t, tt.want, got[0].Tags)
		})
	}
}

func TestViewTagsAreCopied(t *testing.T) {
	ft, s := connected(t)
	out := NewOutput("DP-1", fakeResolver{"DP-1": 10})
	require.NoError(t, out.Listen(s))

	var got []uint32
	out.Subscribe(func(e OutputEvent) { got = e.(ViewTagsEvent).Tags })

	raw := nativeArray(3, 4)
	ft.statusManager.outputListeners[10].ViewTags(raw)
	for i := range raw {
		raw[i] = 0
	}
	assert.Equal(t, []uint32{3, 4}, got)
}

func TestLayoutNameClearedVsSet(t *testing.T) {
	ft, s := connected(t)
	out := NewOutput("DP-1", fakeResolver{"DP-1": 10})
	require.NoError(t, out.Listen(s))

	var got []LayoutNameEvent
	out.Subscribe(func(e OutputEvent) { got = append(got, e.(LayoutNameEvent)) })

	l := ft.statusManager.outputListeners[10]
	l.LayoutName("")
	l.LayoutNameClear()

	require.Len(t, got, 2)
	require.NotNil(t, got[0].Name)
	assert.Equal(t, "", *got[0].Name)
	assert.False(t, got[0].Cleared())
	assert.True(t, got[1].Cleared())
}

func TestSubscribeCancel(t *testing.T) {
	ft, s := connected(t)
	out := NewOutput("DP-1", fakeResolver{"DP-1": 10})
	require.NoError(t, out.Listen(s))

	var first, second int
	cancel := out.Subscribe(func(OutputEvent) { first++ })
	out.Subscribe(func(OutputEvent) { second++ })

	l := ft.statusManager.outputListeners[10]
	l.FocusedTags(1)
	cancel()
	cancel()
	l.FocusedTags(2)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 1, out.events.len())
}

func TestOutputCloseAllowsRelisten(t *testing.T) {
	ft, s := connected(t)
	out := NewOutput("DP-1", fakeResolver{"DP-1": 10})
	require.NoError(t, out.Listen(s))

	status := ft.statusManager.outputStatuses[10]
	require.NoError(t, out.Close())
	require.NoError(t, out.Close())
	assert.Equal(t, 1, status.destroyed)
	assert.False(t, out.Listening())
	assert.Empty(t, s.outputName(10))

	require.NoError(t, out.Listen(s))
	assert.True(t, out.Listening())
}
