// Package output renders the live conversation to the terminal.
package output

import (
	"fmt"
	"io"
	"sync"
)

// Console writes conversation turns to one writer. Reply chunks print as
// they stream in so the answer reads out in real time; a mutex keeps
// interleaved status lines off a partially printed reply.
type Console struct {
	mu sync.Mutex
	w  io.Writer

	userName        string
	interviewerName string
}

// NewConsole labels transcripts with interviewerName and streamed replies
// with userName.
func NewConsole(w io.Writer, userName, interviewerName string) *Console {
	return &Console{
		w:               w,
		userName:        userName,
		interviewerName: interviewerName,
	}
}

// UserTurn prints one completed utterance under the interviewer's name.
func (c *Console) UserTurn(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s: %s\n\n", c.interviewerName, text)
}

// Status prints one standalone status line.
func (c *Console) Status(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s\n", line)
}

// BeginReply opens the streamed reply with the responder's label.
func (c *Console) BeginReply() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "Processing...\n\n%s: ", c.userName)
}

// ReplyChunk prints one streamed increment without a trailing newline.
func (c *Console) ReplyChunk(chunk string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.w, chunk)
}

// EndReply closes the reply and reminds how to resume capture.
func (c *Console) EndReply() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.w, "\n\nToggle again to continue transcription.\n\n")
}
