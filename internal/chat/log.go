// Package chat holds the conversation log and drives streaming completions.
package chat

import "sync"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged conversation entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Log is the ordered, append-only conversation history.
//
// Entry 0 is always the system message, set once at construction. The log
// is shared between the receive loop (user turns) and the processor
// (assistant turns); appends and snapshots are mutex-guarded.
type Log struct {
	mu      sync.Mutex
	entries []Message
}

// NewLog seeds the conversation with the immutable system entry.
func NewLog(systemPrompt string) *Log {
	return &Log{
		entries: []Message{{Role: RoleSystem, Content: systemPrompt}},
	}
}

// Append adds one entry at the end of the log.
func (l *Log) Append(role Role, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Message{Role: role, Content: content})
}

// Messages returns a snapshot of the full ordered history.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
