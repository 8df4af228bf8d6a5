// Package river binds the river compositor status and control protocols on
// top of a Wayland transport and turns their callbacks into typed events and
// command futures.
package river

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bnema/riverbridge/internal/future"
	"github.com/bnema/riverbridge/internal/logger"
	"github.com/charmbracelet/log"
)

// Option configures a Session at connect time
type Option func(*Session)

// WithSeatRequired controls whether a missing wl_seat makes the session
// invalid. Seats are required by default.
func WithSeatRequired(required bool) Option {
	return func(s *Session) {
		s.requireSeat = required
	}
}

// WithLogger replaces the component logger
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// Session owns the transport and the river globals bound from it. Apart
// from Close and the subscription helpers, its methods must be called from
// the goroutine that dispatches the transport.
type Session struct {
	transport   Transport
	log         *log.Logger
	requireSeat bool

	statusManager StatusManager
	control       Control
	seatObject    SeatObject
	versions      map[string]uint32

	enumerated bool
	valid      bool
	missing    []string

	seat     *Seat
	outputs  []*Output
	byObject map[uint32]*Output

	closed          bool
	transportClosed atomic.Bool
	transportOnce   sync.Once
	transportErr    error
}

// Connect enumerates the registry of t, binds the river globals and the
// seat, and performs one round-trip. It never fails: a session that could
// not bind what it needs is returned invalid and Missing reports why.
func Connect(t Transport, opts ...Option) *Session {
	s := &Session{
		transport:   t,
		log:         logger.WithPrefix("river"),
		requireSeat: true,
		versions:    make(map[string]uint32),
		byObject:    make(map[uint32]*Output),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seat = &Seat{session: s}

	t.OnGlobal(s.handleGlobal)
	rtErr := t.Roundtrip()
	s.enumerated = true

	if rtErr != nil {
		s.log.Warn("Registry round-trip failed", "err", rtErr)
	}
	s.missing = s.missingInterfaces()
	s.valid = rtErr == nil && len(s.missing) == 0

	if !s.valid {
		s.log.Warn("River was not detected", "missing", s.missing)
	} else {
		s.log.Debug("River session ready",
			"status_manager", s.versions[StatusManagerInterface],
			"control", s.versions[ControlInterface],
			"seat", s.versions[SeatInterface])
	}
	return s
}

func (s *Session) handleGlobal(g Global) {
	if s.enumerated {
		// Validity is decided once; later announcements do not change it.
		s.log.Debug("Ignoring global announced after enumeration", "interface", g.Interface, "name", g.Name)
		return
	}

	switch g.Interface {
	case StatusManagerInterface:
		if s.statusManager != nil {
			s.log.Debug("Ignoring duplicate global", "interface", g.Interface, "name", g.Name)
			return
		}
		v := min(g.Version, StatusManagerVersion)
		sm, err := s.transport.BindStatusManager(g, v)
		if err != nil {
			s.log.Warn("Failed to bind global", "interface", g.Interface, "err", err)
			return
		}
		s.statusManager = sm
		s.versions[g.Interface] = v

	case ControlInterface:
		if s.control != nil {
			s.log.Debug("Ignoring duplicate global", "interface", g.Interface, "name", g.Name)
			return
		}
		v := min(g.Version, ControlVersion)
		c, err := s.transport.BindControl(g, v)
		if err != nil {
			s.log.Warn("Failed to bind global", "interface", g.Interface, "err", err)
			return
		}
		s.control = c
		s.versions[g.Interface] = v

	case SeatInterface:
		// Only the first seat is used for status and commands
		if s.seatObject != nil {
			return
		}
		v := min(g.Version, SeatVersion)
		seat, err := s.transport.BindSeat(g, v)
		if err != nil {
			s.log.Warn("Failed to bind global", "interface", g.Interface, "err", err)
			return
		}
		s.seatObject = seat
		s.versions[g.Interface] = v
	}
}

func (s *Session) missingInterfaces() []string {
	var missing []string
	if s.statusManager == nil {
		missing = append(missing, StatusManagerInterface)
	}
	if s.control == nil {
		missing = append(missing, ControlInterface)
	}
	if s.requireSeat && s.seatObject == nil {
		missing = append(missing, SeatInterface)
	}
	return missing
}

// Valid reports whether every required global was bound
func (s *Session) Valid() bool {
	return s.valid && !s.closed
}

// Missing lists the required interfaces the compositor did not offer
func (s *Session) Missing() []string {
	return append([]string(nil), s.missing...)
}

// HasSeat reports whether a wl_seat was bound
func (s *Session) HasSeat() bool {
	return s.seatObject != nil
}

// Version returns the version an interface was bound at, or 0
func (s *Session) Version(iface string) uint32 {
	return s.versions[iface]
}

// Seat returns the session's seat resource
func (s *Session) Seat() *Seat {
	return s.seat
}

// Dispatch handles the next incoming event
func (s *Session) Dispatch() error {
	if s.transportClosed.Load() {
		return ErrClosed
	}
	return s.transport.Dispatch()
}

// Run dispatches events until ctx ends or the transport fails. Cancelling
// ctx closes the transport to unblock the pending read, so the session
// cannot be dispatched again afterwards.
func (s *Session) Run(ctx context.Context) error {
	if !s.Valid() {
		return ErrSessionInvalid
	}
	stop := context.AfterFunc(ctx, func() { _ = s.closeTransport() })
	defer stop()

	for {
		if err := s.Dispatch(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("dispatch: %w", err)
		}
	}
}

// Await dispatches events until f settles and returns its result. Like Run,
// a cancelled ctx closes the transport. f must be settled by events of this
// session; results produced by other goroutines should use f.Wait instead.
func Await[T any](ctx context.Context, s *Session, f *future.Future[T]) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	stop := context.AfterFunc(ctx, func() { _ = s.closeTransport() })
	defer stop()

	for !f.Settled() {
		if err := s.Dispatch(); err != nil {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, fmt.Errorf("dispatch: %w", err)
		}
	}
	return f.Result()
}

func (s *Session) closeTransport() error {
	s.transportOnce.Do(func() {
		s.transportClosed.Store(true)
		s.transportErr = s.transport.Close()
	})
	return s.transportErr
}

func (s *Session) track(o *Output) {
	s.outputs = append(s.outputs, o)
	if o.object != nil {
		s.byObject[o.object.ID()] = o
	}
}

func (s *Session) untrack(o *Output) {
	for i, tracked := range s.outputs {
		if tracked == o {
			s.outputs = append(s.outputs[:i:i], s.outputs[i+1:]...)
			break
		}
	}
	if o.object != nil {
		delete(s.byObject, o.object.ID())
	}
}

// outputName maps a wl_output object id to the identifier of a listening
// Output, or "" when the output is not tracked.
func (s *Session) outputName(objectID uint32) string {
	if o, ok := s.byObject[objectID]; ok {
		return o.id
	}
	return ""
}

// destroy sends a destructor unless the transport is already gone
func (s *Session) destroy(d Destroyer) error {
	if d == nil || s.transportClosed.Load() {
		return nil
	}
	return d.Destroy()
}

// Close releases every listening resource, then the bound globals, then the
// transport. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, o := range append([]*Output(nil), s.outputs...) {
		if err := o.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output %s: %w", o.id, err))
		}
	}
	if err := s.seat.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close seat status: %w", err))
	}
	if err := s.destroy(s.control); err != nil {
		errs = append(errs, fmt.Errorf("destroy control: %w", err))
	}
	if err := s.destroy(s.statusManager); err != nil {
		errs = append(errs, fmt.Errorf("destroy status manager: %w", err))
	}
	if s.seatObject != nil && !s.transportClosed.Load() {
		if err := s.seatObject.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release seat: %w", err))
		}
	}
	s.control, s.statusManager, s.seatObject = nil, nil, nil

	if err := s.closeTransport(); err != nil {
		errs = append(errs, fmt.Errorf("close transport: %w", err))
	}
	return errors.Join(errs...)
}
