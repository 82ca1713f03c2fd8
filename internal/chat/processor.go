package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// CompletionStream yields text increments until io.EOF.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}

// Completer opens a streaming completion over a full conversation history.
type Completer interface {
	StreamCompletion(ctx context.Context, messages []Message) (CompletionStream, error)
}

// Surface receives incremental assistant output with immediate flush semantics.
type Surface interface {
	BeginReply()
	ReplyChunk(text string)
	EndReply()
}

// Processor turns one completed user utterance into a streamed assistant turn.
//
// Process is invoked synchronously from the transcript receive loop, so at
// most one completion is in flight at a time.
type Processor struct {
	log       *Log
	completer Completer
	out       Surface
	logger    *slog.Logger
}

// NewProcessor wires the conversation log, completion client, and output surface.
func NewProcessor(log *Log, completer Completer, out Surface, logger *slog.Logger) *Processor {
	return &Processor{log: log, completer: completer, out: out, logger: logger}
}

// Process streams a completion for the current history and appends the
// assembled assistant entry. The caller has already appended the user turn.
// Completion-service failures are fatal for the run and are not retried.
func (p *Processor) Process(ctx context.Context) error {
	stream, err := p.completer.StreamCompletion(ctx, p.log.Messages())
	if err != nil {
		return fmt.Errorf("open completion stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	p.out.BeginReply()

	var reply strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read completion stream: %w", err)
		}

		// Empty increments count toward concatenation order but are not emitted.
		reply.WriteString(chunk)
		if chunk != "" {
			p.out.ReplyChunk(chunk)
		}
	}

	p.out.EndReply()
	p.log.Append(RoleAssistant, reply.String())

	if p.logger != nil {
		p.logger.Info("assistant turn complete",
			"entries", p.log.Len(),
			"reply_length", reply.Len(),
		)
	}
	return nil
}
