package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/transport"
)

// ErrSupervisorRunning is returned by Run when it is already running.
var ErrSupervisorRunning = errors.New("supervisor already running")

// State represents the link state.
type State uint8

const (
	// StateIdle indicates Run has not been called.
	StateIdle State = iota

	// StateOpening indicates the port is being opened.
	StateOpening

	// StateUp indicates a link is open and its read loop is running.
	StateUp

	// StateBackoff indicates a wait before the next open attempt.
	StateBackoff

	// StateStopped indicates Run has returned.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateOpening:
		return "OPENING"
	case StateUp:
		return "UP"
	case StateBackoff:
		return "BACKOFF"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// LinkHandler receives link lifecycle events and inbound frames.
type LinkHandler interface {
	// LinkUp is called when a link has been opened, before frames flow.
	LinkUp(link *transport.Link)

	// HandleFrame is called for every inbound frame.
	HandleFrame(frame []byte)

	// LinkDown is called after the read loop ends.
	LinkDown(link *transport.Link, err error)
}

// SupervisorConfig configures a Supervisor.
type SupervisorConfig struct {
	// Opener opens the byte stream. Required.
	Opener transport.Opener

	// Link configures each opened link.
	Link transport.LinkConfig

	// Backoff controls the delay between open attempts.
	Backoff BackoffConfig

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger
}

// Supervisor keeps a transport link open, reopening it with backoff when
// the port fails or disappears.
type Supervisor struct {
	mu sync.RWMutex

	config  SupervisorConfig
	handler LinkHandler
	backoff *Backoff

	state   State
	link    *transport.Link
	running bool

	onStateChange func(oldState, newState State)
}

// NewSupervisor creates a supervisor that reports to handler.
func NewSupervisor(config SupervisorConfig, handler LinkHandler) *Supervisor {
	return &Supervisor{
		config:  config,
		handler: handler,
		backoff: NewBackoff(config.Backoff),
	}
}

// OnStateChange sets a callback for state changes.
func (s *Supervisor) OnStateChange(fn func(oldState, newState State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Link returns the open link, or nil.
func (s *Supervisor) Link() *transport.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.link
}

// Attempts returns the number of failed opens since the last success.
func (s *Supervisor) Attempts() int {
	return s.backoff.Attempts()
}

// Reopen closes the current link. Run opens a new one after the usual
// backoff.
func (s *Supervisor) Reopen() {
	if link := s.Link(); link != nil {
		_ = link.Close()
	}
}

// Run keeps the link open until ctx is done.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSupervisorRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.setState(StateStopped)
	}()

	for {
		s.setState(StateOpening)
		rwc, err := s.config.Opener(ctx)
		if err == nil {
			s.backoff.Reset()
			s.serve(ctx, transport.NewLink(rwc, s.config.Link))
		} else {
			s.warn("open link failed", "port", s.config.Link.Port, "attempt", s.backoff.Attempts()+1, "error", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := s.backoff.Next()
		s.setState(StateBackoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// serve runs one link until it fails or ctx is done.
func (s *Supervisor) serve(ctx context.Context, link *transport.Link) {
	s.mu.Lock()
	s.link = link
	s.mu.Unlock()
	s.setState(StateUp)

	s.handler.LinkUp(link)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = link.Close()
		case <-stop:
		}
	}()

	err := link.Run(s.handler.HandleFrame)
	close(stop)
	_ = link.Close()

	s.mu.Lock()
	s.link = nil
	s.mu.Unlock()

	if err != nil {
		s.warn("link lost", "port", s.config.Link.Port, "conn", link.ID(), "error", err)
	}
	s.handler.LinkDown(link, err)
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	old := s.state
	s.state = state
	fn := s.onStateChange
	s.mu.Unlock()

	if old != state && fn != nil {
		fn(old, state)
	}
}

func (s *Supervisor) warn(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Warn(msg, args...)
	}
}
