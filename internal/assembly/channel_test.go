package assembly

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// wsServer upgrades one connection and runs handler on it.
func wsServer(t *testing.T, handler func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws://" + strings.TrimPrefix(server.URL, "http://")
}

func TestDialRequiresAPIKey(t *testing.T) {
	_, err := Dial(context.Background(), Config{URL: "wss://example.com/ws", APIKey: "  "})
	require.Error(t, err)
}

func TestConnectURLAddsSampleRate(t *testing.T) {
	got, err := connectURL(Config{URL: "wss://api.example.com/v2/realtime/ws", SampleRate: 16000})
	require.NoError(t, err)
	require.Equal(t, "wss://api.example.com/v2/realtime/ws?sample_rate=16000", got)
}

func TestConnectURLRejectsHTTPScheme(t *testing.T) {
	_, err := connectURL(Config{URL: "https://api.example.com/ws", SampleRate: 16000})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ws or wss")
}

func TestDialSendsAuthAndSampleRate(t *testing.T) {
	gotAuth := make(chan string, 1)
	gotRate := make(chan string, 1)

	server := wsServer(t, func(conn *websocket.Conn, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		gotRate <- r.URL.Query().Get("sample_rate")
		// Hold the connection open until the client hangs up.
		_, _, _ = conn.ReadMessage()
	})

	ch, err := Dial(context.Background(), Config{
		URL:        wsURL(server),
		APIKey:     "aai-key",
		SampleRate: 16000,
	})
	require.NoError(t, err)
	defer ch.Close()

	require.Equal(t, "aai-key", <-gotAuth)
	require.Equal(t, "16000", <-gotRate)
}

func TestSendAudioEncodesFrameAsBase64JSON(t *testing.T) {
	received := make(chan []byte, 1)

	server := wsServer(t, func(conn *websocket.Conn, _ *http.Request) {
		kind, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind == websocket.TextMessage {
			received <- payload
		}
	})

	ch, err := Dial(context.Background(), Config{URL: wsURL(server), APIKey: "k", SampleRate: 16000})
	require.NoError(t, err)
	defer ch.Close()

	frame := []byte{0x01, 0x02, 0x03, 0x04}
	require.NoError(t, ch.SendAudio(frame))

	var message audioMessage
	require.NoError(t, json.Unmarshal(<-received, &message))
	decoded, err := base64.StdEncoding.DecodeString(message.AudioData)
	require.NoError(t, err)
	require.Equal(t, frame, decoded)
}

func TestReadEventReturnsFinalTranscript(t *testing.T) {
	server := wsServer(t, func(conn *websocket.Conn, _ *http.Request) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"message_type":"FinalTranscript","text":"Hello there. "}`))
		_, _, _ = conn.ReadMessage()
	})

	ch, err := Dial(context.Background(), Config{URL: wsURL(server), APIKey: "k", SampleRate: 16000})
	require.NoError(t, err)
	defer ch.Close()

	event, err := ch.ReadEvent()
	require.NoError(t, err)
	require.Equal(t, EventFinalTranscript, event.Type)
	require.Equal(t, "Hello there. ", event.Text)
}

func TestReadEventSkipsMalformedAndUntypedMessages(t *testing.T) {
	server := wsServer(t, func(conn *websocket.Conn, _ *http.Request) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json at all`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"no type"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"message_type":"PartialTranscript","text":"hel"}`))
		_, _, _ = conn.ReadMessage()
	})

	ch, err := Dial(context.Background(), Config{URL: wsURL(server), APIKey: "k", SampleRate: 16000})
	require.NoError(t, err)
	defer ch.Close()

	event, err := ch.ReadEvent()
	require.NoError(t, err)
	require.Equal(t, "PartialTranscript", event.Type)
}

func TestCloseSendsTerminateSession(t *testing.T) {
	received := make(chan []byte, 4)

	server := wsServer(t, func(conn *websocket.Conn, _ *http.Request) {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				close(received)
				return
			}
			received <- payload
		}
	})

	ch, err := Dial(context.Background(), Config{URL: wsURL(server), APIKey: "k", SampleRate: 16000})
	require.NoError(t, err)
	require.NoError(t, ch.Close())
	// Second close is a no-op.
	require.NoError(t, ch.Close())

	var sawTerminate bool
	for payload := range received {
		var message terminateMessage
		if json.Unmarshal(payload, &message) == nil && message.TerminateSession {
			sawTerminate = true
		}
	}
	require.True(t, sawTerminate)
}

func TestReadEventSurfacesServerClose(t *testing.T) {
	server := wsServer(t, func(conn *websocket.Conn, _ *http.Request) {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, idleCloseReason)
		_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	})

	ch, err := Dial(context.Background(), Config{URL: wsURL(server), APIKey: "k", SampleRate: 16000})
	require.NoError(t, err)
	defer ch.Close()

	_, err = ch.ReadEvent()
	require.Error(t, err)
	require.True(t, IsIdleClose(err))
}

func TestIsIdleClose(t *testing.T) {
	require.False(t, IsIdleClose(nil))
	require.False(t, IsIdleClose(errors.New("connection reset by peer")))
	require.False(t, IsIdleClose(&websocket.CloseError{Code: websocket.CloseGoingAway, Text: "shutting down"}))
	require.True(t, IsIdleClose(&websocket.CloseError{Code: websocket.CloseGoingAway, Text: "Session idle for too long"}))
	require.True(t, IsIdleClose(errors.New("websocket: close 4031 Session idle for too long")))
}
