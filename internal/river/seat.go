package river

import "fmt"

// Seat is the session-scoped seat status resource
type Seat struct {
	session   *Session
	status    Destroyer
	listening bool

	events observers[SeatEvent]
}

// Listening reports whether the seat status object is attached
func (s *Seat) Listening() bool { return s.listening }

// Listen attaches the seat status object. It is idempotent.
func (s *Seat) Listen() error {
	sess := s.session
	if !sess.Valid() {
		return ErrSessionInvalid
	}
	if s.listening {
		return nil
	}
	if sess.seatObject == nil {
		return ErrNoSeat
	}

	status, err := sess.statusManager.GetSeatStatus(sess.seatObject, &seatBridge{seat: s})
	if err != nil {
		return fmt.Errorf("get seat status: %w", err)
	}
	s.status = status
	s.listening = true
	return nil
}

// Subscribe registers fn for every seat event, in arrival order
func (s *Seat) Subscribe(fn func(SeatEvent)) (cancel func()) {
	return s.events.add(fn)
}

// Close detaches the seat status object
func (s *Seat) Close() error {
	if !s.listening {
		return nil
	}
	err := s.session.destroy(s.status)
	s.status = nil
	s.listening = false
	return err
}

type seatBridge struct {
	seat *Seat
}

func (b *seatBridge) FocusedOutput(objectID uint32) {
	b.seat.events.emit(FocusedOutputEvent{
		ObjectID: objectID,
		Output:   b.seat.session.outputName(objectID),
	})
}

func (b *seatBridge) UnfocusedOutput(objectID uint32) {
	b.seat.events.emit(UnfocusedOutputEvent{
		ObjectID: objectID,
		Output:   b.seat.session.outputName(objectID),
	})
}

func (b *seatBridge) FocusedView(title string) {
	b.seat.events.emit(FocusedViewEvent{Title: title})
}

func (b *seatBridge) Mode(name string) {
	b.seat.events.emit(ModeEvent{Name: name})
}
