// Package pipeline runs the streaming loop that connects microphone
// capture to the transcription service and hands completed utterances to
// the conversation side.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Folusakin/Realtime-Copilot/internal/session"
	"github.com/Folusakin/Realtime-Copilot/internal/transcript"
)

const (
	defaultSendInterval = 10 * time.Millisecond
	defaultBackoffBase  = 250 * time.Millisecond
	defaultBackoffMax   = 5 * time.Second
)

// Event is one transcript message off the wire, reduced to what the
// pipeline acts on.
type Event struct {
	Final bool
	Text  string
}

// Channel is one live transcription connection. SendAudio and ReadEvent
// run on separate goroutines; Close must unblock both.
type Channel interface {
	SendAudio(frame []byte) error
	ReadEvent() (Event, error)
	Close() error
}

// Dialer opens a fresh Channel for each connection attempt.
type Dialer interface {
	Dial(ctx context.Context) (Channel, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Channel, error)

func (f DialerFunc) Dial(ctx context.Context) (Channel, error) {
	return f(ctx)
}

// Config wires one Supervisor.
type Config struct {
	Logger  *slog.Logger
	Dialer  Dialer
	Session *session.Session

	// Frames is the capture stream. Closed frames end the run.
	Frames <-chan []byte

	// Utterances receives each completed utterance exactly once.
	Utterances chan<- string

	// BenignDisconnect classifies stream errors that warrant a
	// reconnect instead of failing the run.
	BenignDisconnect func(error) bool

	// SendInterval is the audio forwarding cadence. Zero uses the default.
	SendInterval time.Duration

	// BackoffBase and BackoffMax bound the reconnect delay. Zero uses
	// the defaults.
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Supervisor owns the connection lifecycle: dial, run the send and
// receive loops, reconnect on benign disconnects, fail on anything else.
// Transcript text accumulated so far survives a reconnect.
type Supervisor struct {
	cfg    Config
	logger *slog.Logger
	buffer *transcript.Buffer
}

// NewSupervisor validates and applies defaults to cfg.
func NewSupervisor(cfg Config) (*Supervisor, error) {
	if cfg.Dialer == nil {
		return nil, fmt.Errorf("pipeline: dialer is required")
	}
	if cfg.Session == nil {
		return nil, fmt.Errorf("pipeline: session is required")
	}
	if cfg.Frames == nil {
		return nil, fmt.Errorf("pipeline: frames channel is required")
	}
	if cfg.Utterances == nil {
		return nil, fmt.Errorf("pipeline: utterances channel is required")
	}
	if cfg.BenignDisconnect == nil {
		cfg.BenignDisconnect = func(error) bool { return false }
	}
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = defaultSendInterval
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = defaultBackoffMax
	}

	return &Supervisor{
		cfg:    cfg,
		logger: cfg.Logger,
		buffer: &transcript.Buffer{},
	}, nil
}

// logInfo emits info-level logs when a logger is configured.
func (s *Supervisor) logInfo(message string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Info(message, args...)
}

// Run drives connections until shutdown or a fatal stream error. A dial
// failure is fatal: the service being unreachable at startup is an
// operator problem, not a transient to paper over.
func (s *Supervisor) Run(ctx context.Context) error {
	backoff := s.cfg.BackoffBase

	for {
		if s.stopping(ctx) {
			return nil
		}

		channel, err := s.cfg.Dialer.Dial(ctx)
		if err != nil {
			return fmt.Errorf("connect transcription channel: %w", err)
		}
		s.logInfo("transcription channel connected")

		events, runErr := s.runConnection(ctx, channel)
		if runErr == nil {
			return nil
		}
		if !s.cfg.BenignDisconnect(runErr) {
			return fmt.Errorf("transcription stream: %w", runErr)
		}

		// A session that carried traffic before idling out is healthy;
		// only back-to-back idle closes grow the delay.
		if events > 0 {
			backoff = s.cfg.BackoffBase
		}
		s.logInfo("transcription session idle; reconnecting", "backoff", backoff.String())

		select {
		case <-ctx.Done():
			return nil
		case <-s.cfg.Session.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > s.cfg.BackoffMax {
			backoff = s.cfg.BackoffMax
		}
	}
}

// runConnection runs both loops over one channel and reports how many
// events arrived before it ended.
func (s *Supervisor) runConnection(ctx context.Context, channel Channel) (int, error) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	var events int

	go func() {
		errCh <- s.sendLoop(connCtx, channel)
	}()
	go func() {
		errCh <- s.recvLoop(connCtx, channel, &events)
	}()

	first := <-errCh
	// Cancel stops the ticking loop; Close unblocks a pending read.
	cancel()
	_ = channel.Close()
	second := <-errCh

	if s.stopping(ctx) {
		return events, nil
	}

	// Both loops can fail near-simultaneously on a dropped connection;
	// if either saw the benign close, the whole connection ended benignly.
	for _, err := range []error{first, second} {
		if err != nil && s.cfg.BenignDisconnect(err) {
			return events, err
		}
	}
	if first != nil {
		return events, first
	}
	return events, second
}

// sendLoop forwards capture frames on a fixed cadence while the session
// is active. While paused it keeps draining frames so stale audio never
// reaches the service after the next toggle.
func (s *Supervisor) sendLoop(ctx context.Context, channel Channel) error {
	ticker := time.NewTicker(s.cfg.SendInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.cfg.Session.Done():
			return nil
		case <-ticker.C:
		}

		active := s.cfg.Session.Active()

		select {
		case frame, ok := <-s.cfg.Frames:
			if !ok {
				return fmt.Errorf("audio capture ended")
			}
			if active {
				if err := channel.SendAudio(frame); err != nil {
					return err
				}
			}
		default:
		}
	}
}

// recvLoop accumulates finalized transcript text. When a final lands
// while the session is paused, the utterance is complete and handed off.
func (s *Supervisor) recvLoop(ctx context.Context, channel Channel, events *int) error {
	for {
		event, err := channel.ReadEvent()
		if err != nil {
			return err
		}
		*events++

		if !event.Final {
			continue
		}
		s.buffer.Append(event.Text)

		if s.cfg.Session.Active() || s.buffer.Empty() {
			continue
		}

		utterance := s.buffer.Take()
		s.logInfo("utterance complete", "chars", len(utterance))

		select {
		case s.cfg.Utterances <- utterance:
		case <-ctx.Done():
			return nil
		case <-s.cfg.Session.Done():
			return nil
		}
	}
}

func (s *Supervisor) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return s.cfg.Session.ShuttingDown()
}
