// Package assembly speaks the AssemblyAI v2 realtime websocket protocol.
//
// A Channel is a single live connection. Audio frames go out as JSON text
// messages carrying base64 PCM; transcript events come back as JSON text
// messages tagged with a message_type. The channel owns a keepalive pinger
// so an otherwise quiet connection is not dropped by intermediaries.
package assembly

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventFinalTranscript marks a finalized transcript segment. Other message
// types (partials, session begin/terminate) pass through with their text
// untouched so callers can filter on Type.
const EventFinalTranscript = "FinalTranscript"

// idleCloseReason is the close reason the service sends when no audio has
// arrived for a while. It is a benign disconnect, not a failure.
const idleCloseReason = "Session idle for too long"

// Config controls a realtime websocket connection.
type Config struct {
	// URL is the websocket endpoint, e.g. wss://api.assemblyai.com/v2/realtime/ws.
	URL string
	// APIKey is sent verbatim in the Authorization header.
	APIKey string
	// SampleRate is the PCM sample rate advertised in the connect URL.
	SampleRate int
	// PingInterval is how often a keepalive ping goes out.
	PingInterval time.Duration
	// PongTimeout is how long a read may stall before the connection is
	// considered dead.
	PongTimeout time.Duration
}

// Event is one inbound message from the transcription service.
type Event struct {
	Type string `json:"message_type"`
	Text string `json:"text"`
}

type audioMessage struct {
	AudioData string `json:"audio_data"`
}

type terminateMessage struct {
	TerminateSession bool `json:"terminate_session"`
}

// Channel is a live realtime connection. SendAudio and Close may be called
// from different goroutines than ReadEvent; concurrent writers are
// serialized internally.
type Channel struct {
	conn *websocket.Conn

	pongTimeout time.Duration

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to the transcription service and starts the keepalive
// pinger. The sample rate is carried as a query parameter on the endpoint
// URL.
func Dial(ctx context.Context, cfg Config) (*Channel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("transcription API key is empty")
	}

	endpoint, err := connectURL(cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("connect to transcription service: %w", err)
	}

	ch := &Channel{
		conn:        conn,
		pongTimeout: cfg.PongTimeout,
		closed:      make(chan struct{}),
	}

	if ch.pongTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(ch.pongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(ch.pongTimeout))
		})
	}
	if cfg.PingInterval > 0 {
		go ch.pingLoop(cfg.PingInterval)
	}

	return ch, nil
}

func connectURL(cfg Config) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil {
		return "", fmt.Errorf("invalid transcription URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("transcription URL scheme must be ws or wss, got %q", parsed.Scheme)
	}

	query := parsed.Query()
	query.Set("sample_rate", strconv.Itoa(cfg.SampleRate))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// SendAudio ships one PCM frame as a base64 JSON text message.
func (c *Channel) SendAudio(frame []byte) error {
	payload, err := json.Marshal(audioMessage{
		AudioData: base64.StdEncoding.EncodeToString(frame),
	})
	if err != nil {
		return fmt.Errorf("encode audio frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("send audio frame: %w", err)
	}
	return nil
}

// ReadEvent blocks for the next inbound message. Messages that do not
// parse as JSON are skipped rather than surfaced; the service occasionally
// interleaves frames we do not care about and a malformed one must not
// take the session down.
func (c *Channel) ReadEvent() (Event, error) {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return Event{}, err
		}

		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			continue
		}
		if event.Type == "" {
			continue
		}
		return event, nil
	}
}

// Close asks the service to terminate the session, then tears down the
// connection. Safe to call more than once and concurrently with SendAudio.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.writeMu.Lock()
		payload, _ := json.Marshal(terminateMessage{TerminateSession: true})
		_ = c.conn.WriteMessage(websocket.TextMessage, payload)
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()

		err = c.conn.Close()
	})
	return err
}

func (c *Channel) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			deadline := time.Now().Add(interval)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// IsIdleClose reports whether err is the service closing an idle session.
// Callers treat this as a cue to reconnect, not as a failure.
func IsIdleClose(err error) bool {
	if err == nil {
		return false
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return strings.Contains(closeErr.Text, idleCloseReason)
	}
	return strings.Contains(err.Error(), idleCloseReason)
}
