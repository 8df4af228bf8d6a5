package river

import (
	"encoding/binary"
	"fmt"
)

// Output is the status resource of one physical output. It stays inert until
// Listen resolves its identifier against the session's compositor.
type Output struct {
	id       string
	resolver OutputResolver

	session   *Session
	object    Object
	status    Destroyer
	listening bool
	failed    bool

	events observers[OutputEvent]
}

// NewOutput creates an output resource for a physical-output identifier.
// Resolution is deferred to Listen.
func NewOutput(id string, resolver OutputResolver) *Output {
	return &Output{id: id, resolver: resolver}
}

func (o *Output) ID() string { return o.id }

// Listening reports whether the output status object is attached
func (o *Output) Listening() bool { return o.listening }

// Listen attaches the output to s and starts forwarding status events. It
// is idempotent. A failed resolution is remembered and never retried.
func (o *Output) Listen(s *Session) error {
	if s == nil || !s.Valid() {
		return ErrSessionInvalid
	}
	if o.listening {
		return nil
	}
	if o.failed {
		return fmt.Errorf("%w: %s", ErrResolutionFailed, o.id)
	}

	var obj Object
	ok := false
	if o.resolver != nil {
		obj, ok = o.resolver.ResolveOutput(o.id)
	}
	if !ok {
		o.failed = true
		s.log.Warn("Could not get Wayland monitor", "output", o.id)
		return fmt.Errorf("%w: %s", ErrResolutionFailed, o.id)
	}

	status, err := s.statusManager.GetOutputStatus(obj, &outputBridge{output: o})
	if err != nil {
		return fmt.Errorf("get output status for %s: %w", o.id, err)
	}

	o.session = s
	o.object = obj
	o.status = status
	o.listening = true
	s.track(o)
	s.log.Debug("Listening to output", "output", o.id, "object", obj.ID())
	return nil
}

// Subscribe registers fn for every event of this output, in arrival order.
// It may be called from any goroutine; fn runs on the dispatch goroutine.
func (o *Output) Subscribe(fn func(OutputEvent)) (cancel func()) {
	return o.events.add(fn)
}

// Close detaches the output status object. The output can listen again
// afterwards.
func (o *Output) Close() error {
	if !o.listening {
		return nil
	}
	s := o.session
	err := s.destroy(o.status)
	s.untrack(o)

	o.session = nil
	o.object = nil
	o.status = nil
	o.listening = false
	return err
}

// outputBridge adapts zriver_output_status_v1 callbacks to OutputEvents
type outputBridge struct {
	output *Output
}

func (b *outputBridge) FocusedTags(tags uint32) {
	b.output.events.emit(FocusedTagsEvent{Output: b.output.id, Tags: tags})
}

func (b *outputBridge) ViewTags(raw []byte) {
	b.output.events.emit(ViewTagsEvent{Output: b.output.id, Tags: decodeViewTags(raw)})
}

func (b *outputBridge) UrgentTags(tags uint32) {
	b.output.events.emit(UrgentTagsEvent{Output: b.output.id, Tags: tags})
}

func (b *outputBridge) LayoutName(name string) {
	b.output.events.emit(LayoutNameEvent{Output: b.output.id, Name: &name})
}

func (b *outputBridge) LayoutNameClear() {
	b.output.events.emit(LayoutNameEvent{Output: b.output.id})
}

// decodeViewTags copies a wl_array of native-endian uint32 into an owned
// slice. A trailing partial element is dropped.
func decodeViewTags(raw []byte) []uint32 {
	tags := make([]uint32, len(raw)/4)
	for i := range tags {
		tags[i] = binary.NativeEndian.Uint32(raw[i*4:])
	}
	return tags
}
