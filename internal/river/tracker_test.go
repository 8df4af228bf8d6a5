package river

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackKeepsConnectedOutputs(t *testing.T) {
	ft, s := connected(t)
	resolver := fakeResolver{"DP-1": 10, "DP-2": 20}

	tr, err := Track(s, resolver, []string{"DP-1", "HDMI-A-1", "DP-2", "DP-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"DP-1", "DP-2"}, tr.Outputs())
	assert.Len(t, ft.statusManager.outputListeners, 2)
	assert.Equal(t, 1, ft.statusManager.seatRequests)

	_, ok := tr.Output("HDMI-A-1")
	assert.False(t, ok)
}

func TestTrackerState(t *testing.T) {
	ft, s := connected(t)
	tr, err := Track(s, fakeResolver{"DP-1": 10, "DP-2": 20}, []string{"DP-1", "DP-2"})
	require.NoError(t, err)

	var kinds []string
	tr.Subscribe(func(e Event) { kinds = append(kinds, e.Kind()) })

	initial, ok := tr.Output("DP-1")
	require.True(t, ok)
	assert.False(t, initial.LayoutKnown)
	assert.Nil(t, initial.LayoutName)
	assert.Equal(t, []uint32{}, initial.Views)

	dp1 := ft.statusManager.outputListeners[10]
	dp1.FocusedTags(1 << 2)
	dp1.UrgentTags(1)
	dp1.ViewTags(nativeArray(4, 1))
	dp1.LayoutName("rivertile")

	seat := ft.statusManager.seatListener
	seat.FocusedOutput(20)
	seat.FocusedView("foot")
	seat.Mode("locked")

	st, ok := tr.Output("DP-1")
	require.True(t, ok)
	assert.Equal(t, uint32(4), st.FocusedTags)
	assert.Equal(t, uint32(1), st.UrgentTags)
	assert.Equal(t, []uint32{4, 1}, st.Views)
	require.NotNil(t, st.LayoutName)
	assert.Equal(t, "rivertile", *st.LayoutName)
	assert.True(t, st.LayoutKnown)

	assert.Equal(t, SeatState{FocusedOutput: "DP-2", FocusedView: "foot", Mode: "locked"}, tr.Seat())

	dp1.LayoutNameClear()
	seat.UnfocusedOutput(20)

	snap := tr.Snapshot()
	require.Len(t, snap.Outputs, 2)
	assert.Equal(t, "DP-1", snap.Outputs[0].ID)
	assert.Nil(t, snap.Outputs[0].LayoutName)
	assert.True(t, snap.Outputs[0].LayoutKnown)
	assert.False(t, snap.Outputs[1].LayoutKnown)
	assert.Empty(t, snap.Seat.FocusedOutput)

	assert.Equal(t, []string{
		"focused_tags", "urgent_tags", "view_tags", "layout_name",
		"focused_output", "focused_view", "mode",
		"layout_name", "unfocused_output",
	}, kinds)
}

func TestTrackerSnapshotIsACopy(t *testing.T) {
	ft, s := connected(t)
	tr, err := Track(s, fakeResolver{"DP-1": 10}, []string{"DP-1"})
	require.NoError(t, err)

	ft.statusManager.outputListeners[10].ViewTags(nativeArray(1, 2))
	ft.statusManager.outputListeners[10].LayoutName("monocle")

	snap := tr.Snapshot()
	snap.Outputs[0].Views[0] = 99
	*snap.Outputs[0].LayoutName = "changed"

	st, _ := tr.Output("DP-1")
	assert.Equal(t, []uint32{1, 2}, st.Views)
	assert.Equal(t, "monocle", *st.LayoutName)
}

func TestTrackWithoutSeat(t *testing.T) {
	g := riverGlobals()
	s := Connect(newFakeTransport(g[1], g[2]), WithSeatRequired(false))

	tr, err := Track(s, fakeResolver{"DP-1": 10}, []string{"DP-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"DP-1"}, tr.Outputs())
	assert.Equal(t, SeatState{}, tr.Seat())
}

func TestTrackInvalidSession(t *testing.T) {
	_, err := Track(Connect(newFakeTransport()), fakeResolver{}, []string{"DP-1"})
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestTrackerClose(t *testing.T) {
	ft, s := connected(t)
	tr, err := Track(s, fakeResolver{"DP-1": 10}, []string{"DP-1"})
	require.NoError(t, err)

	calls := 0
	tr.Subscribe(func(Event) { calls++ })
	l := ft.statusManager.outputListeners[10]

	require.NoError(t, tr.Close())
	assert.Equal(t, 1, ft.statusManager.outputStatuses[10].destroyed)

	// A straggling event after close is not applied
	l.FocusedTags(8)
	st, _ := tr.Output("DP-1")
	assert.Zero(t, st.FocusedTags)
	assert.Zero(t, calls)
}
