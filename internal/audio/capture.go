package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// FrameSizeBytes is 3200 samples at 16kHz mono s16, the frame the
// transcription service expects per audio message.
const FrameSizeBytes = 6400

// Capture streams fixed-size PCM frames from one selected Pulse source.
// The session runs for as long as the process does, so frames are never
// buffered beyond the channel: when the consumer falls behind, the oldest
// ready frame is dropped and counted rather than blocking the Pulse
// callback.
type Capture struct {
	device Device

	client *pulse.Client
	stream *pulse.RecordStream

	frames chan []byte
	stopCh chan struct{}

	mu      sync.Mutex
	pending []byte
	stopped bool

	inflight sync.WaitGroup
	bytes    atomic.Int64
	dropped  atomic.Int64
}

// StartCapture creates and starts a 16kHz mono s16 record stream.
func StartCapture(ctx context.Context, selected Device) (*Capture, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	capture := &Capture{
		device: selected,
		client: client,
		frames: make(chan []byte, 32),
		stopCh: make(chan struct{}),
	}

	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(16000),
		pulse.RecordBufferFragmentSize(FrameSizeBytes),
		pulse.RecordMediaName("copilot capture"),
	)
	if err != nil {
		capture.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	capture.stream = stream
	stream.Start()

	go func() {
		<-ctx.Done()
		_ = capture.Stop()
	}()

	return capture, nil
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// Frames returns the PCM stream as FrameSizeBytes slices. The channel is
// closed by Stop; a consumer draining it with a non-blocking receive sees
// either a ready frame or nothing.
func (c *Capture) Frames() <-chan []byte {
	return c.frames
}

// BytesCaptured reports total bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// FramesDropped reports frames discarded because the consumer fell behind.
func (c *Capture) FramesDropped() int64 {
	return c.dropped.Load()
}

// Stop halts the stream and closes Frames exactly once. Partial trailing
// audio shorter than one frame is discarded.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.stopCh)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}

	c.inflight.Wait()
	close(c.frames)
	return nil
}

// Close is a convenience alias for Stop.
func (c *Capture) Close() {
	_ = c.Stop()
}

// onPCM receives raw Pulse buffers and emits FrameSizeBytes frames.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-c.stopCh:
		return 0, io.EOF
	default:
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as c.stopped to avoid Add/Wait races.
	c.inflight.Add(1)

	c.pending = append(c.pending, buffer...)

	frames := make([][]byte, 0, len(c.pending)/FrameSizeBytes)
	for len(c.pending) >= FrameSizeBytes {
		frame := make([]byte, FrameSizeBytes)
		copy(frame, c.pending[:FrameSizeBytes])
		c.pending = c.pending[FrameSizeBytes:]
		frames = append(frames, frame)
	}
	c.mu.Unlock()
	defer c.inflight.Done()

	c.bytes.Add(int64(len(buffer)))

	for _, frame := range frames {
		select {
		case <-c.stopCh:
			return 0, io.EOF
		case c.frames <- frame:
		default:
			// Consumer is behind; evict the oldest ready frame and retry.
			select {
			case <-c.frames:
				c.dropped.Add(1)
			default:
			}
			select {
			case c.frames <- frame:
			default:
				c.dropped.Add(1)
			}
		}
	}

	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
