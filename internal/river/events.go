package river

import "sync"

// Event is any typed notification produced by the event bridges
type Event interface {
	Kind() string
}

// OutputEvent is a status notification scoped to one output
type OutputEvent interface {
	Event
	OutputID() string
}

// SeatEvent is a status notification scoped to the session seat
type SeatEvent interface {
	Event
	seatEvent()
}

// FocusedTagsEvent reports the bitmask of focused tags on an output
type FocusedTagsEvent struct {
	Output string `json:"output"`
	Tags   uint32 `json:"tags"`
}

// UrgentTagsEvent reports the bitmask of tags holding urgent views
type UrgentTagsEvent struct {
	Output string `json:"output"`
	Tags   uint32 `json:"tags"`
}

// ViewTagsEvent reports the tags of every view on an output, in the
// compositor's order. Tags is an owned copy and may be empty.
type ViewTagsEvent struct {
	Output string   `json:"output"`
	Tags   []uint32 `json:"tags"`
}

// LayoutNameEvent reports the layout name of an output. A nil Name means
// the compositor cleared it.
type LayoutNameEvent struct {
	Output string  `json:"output"`
	Name   *string `json:"name"`
}

// Cleared reports whether the event unsets the layout name
func (e LayoutNameEvent) Cleared() bool { return e.Name == nil }

func (e FocusedTagsEvent) Kind() string { return "focused_tags" }
func (e UrgentTagsEvent) Kind() string  { return "urgent_tags" }
func (e ViewTagsEvent) Kind() string    { return "view_tags" }
func (e LayoutNameEvent) Kind() string  { return "layout_name" }

func (e FocusedTagsEvent) OutputID() string { return e.Output }
func (e UrgentTagsEvent) OutputID() string  { return e.Output }
func (e ViewTagsEvent) OutputID() string    { return e.Output }
func (e LayoutNameEvent) OutputID() string  { return e.Output }

// FocusedOutputEvent reports that the seat's focus moved to an output.
// Output is empty when the output is not tracked by this session.
type FocusedOutputEvent struct {
	ObjectID uint32 `json:"object_id"`
	Output   string `json:"output,omitempty"`
}

// UnfocusedOutputEvent reports that the seat's focus left an output
type UnfocusedOutputEvent struct {
	ObjectID uint32 `json:"object_id"`
	Output   string `json:"output,omitempty"`
}

// FocusedViewEvent reports the title of the focused view, possibly empty
type FocusedViewEvent struct {
	Title string `json:"title"`
}

// ModeEvent reports the seat's active mode
type ModeEvent struct {
	Name string `json:"name"`
}

func (e FocusedOutputEvent) Kind() string   { return "focused_output" }
func (e UnfocusedOutputEvent) Kind() string { return "unfocused_output" }
func (e FocusedViewEvent) Kind() string     { return "focused_view" }
func (e ModeEvent) Kind() string            { return "mode" }

func (FocusedOutputEvent) seatEvent()   {}
func (UnfocusedOutputEvent) seatEvent() {}
func (FocusedViewEvent) seatEvent()     {}
func (ModeEvent) seatEvent()            {}

type subscriber[E any] struct {
	id int
	fn func(E)
}

// observers is an ordered subscriber list. Emission happens outside the
// lock so callbacks may subscribe or cancel.
type observers[E any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[E]
}

func (o *observers[E]) add(fn func(E)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, subscriber[E]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { o.remove(id) })
	}
}

func (o *observers[E]) remove(id int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, s := range o.subs {
		if s.id == id {
			o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
			return
		}
	}
}

func (o *observers[E]) emit(e E) {
	o.mu.Lock()
	subs := make([]subscriber[E], len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}

func (o *observers[E]) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}
