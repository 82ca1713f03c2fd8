package openai

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// chatChunk is the streaming chunk wire format.
type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

// Stream reads completion increments from an SSE response body.
type Stream struct {
	reader *bufio.Reader
	closer io.Closer
	done   bool
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{reader: bufio.NewReader(body), closer: body}
}

// Recv returns the next text increment, which may be empty.
// It returns io.EOF once the stream has completed.
func (s *Stream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			s.done = true
			if err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Unparseable chunks are skipped, not fatal.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.closer.Close()
}
