// Package session coordinates the toggle and shutdown state of one
// running copilot and serves its IPC commands.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Folusakin/Realtime-Copilot/internal/fsm"
)

// Session is the shared state every goroutine of a running copilot
// consults. The audio sender and transcript receiver poll Active on every
// cycle; Stop is the single shutdown trigger for all of them.
type Session struct {
	logger *slog.Logger
	grace  time.Duration

	mu    sync.Mutex
	state fsm.State

	stopOnce sync.Once
	done     chan struct{}
}

// New creates a session in the paused state. grace is the delay applied
// before an active-to-paused flip so trailing audio already in flight can
// still be transcribed.
func New(logger *slog.Logger, grace time.Duration) *Session {
	return &Session{
		logger: logger,
		grace:  grace,
		state:  fsm.StatePaused,
		done:   make(chan struct{}),
	}
}

// State returns the current capture state.
func (s *Session) State() fsm.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether microphone audio is currently being forwarded.
func (s *Session) Active() bool {
	return s.State() == fsm.StateActive
}

// Toggle flips between active and paused. Pausing waits out the grace
// window first, with capture still running, so the tail of the utterance
// reaches the transcription service before forwarding stops.
func (s *Session) Toggle() (fsm.State, error) {
	if s.Active() && s.grace > 0 {
		time.Sleep(s.grace)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fsm.Transition(s.state, fsm.EventToggle)
	if err != nil {
		return s.state, err
	}
	s.state = next
	s.logger.Info("session toggled", "state", string(next))
	return next, nil
}

// Stop requests shutdown. Safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("session stop requested")
		close(s.done)
	})
}

// Done is closed once Stop has been called.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ShuttingDown reports whether Stop has been called.
func (s *Session) ShuttingDown() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
