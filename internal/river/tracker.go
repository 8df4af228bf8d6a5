package river

import (
	"errors"
	"slices"
	"sync"
)

// OutputState is the last known status of one output
type OutputState struct {
	ID          string   `json:"id"`
	FocusedTags uint32   `json:"focused_tags"`
	UrgentTags  uint32   `json:"urgent_tags"`
	Views       []uint32 `json:"views"`
	// LayoutName is nil both before the first layout event and after a
	// clear; LayoutKnown tells the two apart.
	LayoutName  *string `json:"layout_name"`
	LayoutKnown bool    `json:"layout_known"`
}

// SeatState is the last known status of the session seat
type SeatState struct {
	FocusedOutput string `json:"focused_output"`
	FocusedView   string `json:"focused_view"`
	Mode          string `json:"mode"`
}

// Snapshot is a consistent copy of everything a Tracker knows
type Snapshot struct {
	Outputs []OutputState `json:"outputs"`
	Seat    SeatState     `json:"seat"`
}

// Tracker listens to a set of outputs and the seat and keeps their latest
// state. Reads are safe from any goroutine.
type Tracker struct {
	session *Session
	outputs []*Output

	mu     sync.RWMutex
	states map[string]*OutputState
	seat   SeatState

	changes observers[Event]
	cancels []func()
}

// Track creates one Output per identifier and listens to it. Outputs that
// fail to attach are skipped, so Outputs may be shorter than ids.
func Track(s *Session, resolver OutputResolver, ids []string) (*Tracker, error) {
	if s == nil || !s.Valid() {
		return nil, ErrSessionInvalid
	}

	t := &Tracker{
		session: s,
		states:  make(map[string]*OutputState),
	}

	for _, id := range ids {
		if _, dup := t.states[id]; dup {
			continue
		}
		o := NewOutput(id, resolver)
		if err := o.Listen(s); err != nil {
			s.log.Debug("Skipping output", "output", id, "err", err)
			continue
		}
		t.outputs = append(t.outputs, o)
		t.states[id] = &OutputState{ID: id, Views: []uint32{}}
		t.cancels = append(t.cancels, o.Subscribe(t.applyOutput))
	}

	seat := s.Seat()
	switch err := seat.Listen(); {
	case err == nil:
		t.cancels = append(t.cancels, seat.Subscribe(t.applySeat))
	case errors.Is(err, ErrNoSeat):
		s.log.Debug("Tracking without seat status")
	default:
		t.Close()
		return nil, err
	}

	return t, nil
}

func (t *Tracker) applyOutput(e OutputEvent) {
	t.mu.Lock()
	st, ok := t.states[e.OutputID()]
	if ok {
		switch ev := e.(type) {
		case FocusedTagsEvent:
			st.FocusedTags = ev.Tags
		case UrgentTagsEvent:
			st.UrgentTags = ev.Tags
		case ViewTagsEvent:
			st.Views = ev.Tags
		case LayoutNameEvent:
			st.LayoutName = ev.Name
			st.LayoutKnown = true
		}
	}
	t.mu.Unlock()

	if ok {
		t.changes.emit(e)
	}
}

func (t *Tracker) applySeat(e SeatEvent) {
	t.mu.Lock()
	switch ev := e.(type) {
	case FocusedOutputEvent:
		t.seat.FocusedOutput = ev.Output
	case UnfocusedOutputEvent:
		if t.seat.FocusedOutput == ev.Output {
			t.seat.FocusedOutput = ""
		}
	case FocusedViewEvent:
		t.seat.FocusedView = ev.Title
	case ModeEvent:
		t.seat.Mode = ev.Name
	}
	t.mu.Unlock()

	t.changes.emit(e)
}

// Outputs returns the identifiers of the connected outputs in tracking order
func (t *Tracker) Outputs() []string {
	ids := make([]string, len(t.outputs))
	for i, o := range t.outputs {
		ids[i] = o.ID()
	}
	return ids
}

// Output returns a copy of the state of one output
func (t *Tracker) Output(id string) (OutputState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.states[id]
	if !ok {
		return OutputState{}, false
	}
	return st.clone(), true
}

// Seat returns the seat state
func (t *Tracker) Seat() SeatState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.seat
}

// Snapshot copies the state of every tracked output and the seat
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{Seat: t.seat, Outputs: make([]OutputState, 0, len(t.outputs))}
	for _, o := range t.outputs {
		snap.Outputs = append(snap.Outputs, t.states[o.ID()].clone())
	}
	return snap
}

// Subscribe registers fn for every event applied to the tracked state
func (t *Tracker) Subscribe(fn func(Event)) (cancel func()) {
	return t.changes.add(fn)
}

// Close stops tracking and detaches the outputs it created
func (t *Tracker) Close() error {
	for _, cancel := range t.cancels {
		cancel()
	}
	t.cancels = nil

	var errs []error
	for _, o := range t.outputs {
		errs = append(errs, o.Close())
	}
	return errors.Join(errs...)
}

func (st *OutputState) clone() OutputState {
	c := *st
	c.Views = slices.Clone(st.Views)
	if c.Views == nil {
		c.Views = []uint32{}
	}
	if st.LayoutName != nil {
		name := *st.LayoutName
		c.LayoutName = &name
	}
	return c
}
