// Package transcript accumulates finalized recognition fragments into utterances.
package transcript

import "strings"

// Buffer collects final transcript fragments for one in-progress utterance.
//
// Fragments are concatenated exactly as received; the transcription service
// includes its own spacing and punctuation. The buffer is owned by the
// receive loop and must not be shared across goroutines.
type Buffer struct {
	builder strings.Builder
}

// Append adds one final fragment in arrival order.
func (b *Buffer) Append(text string) {
	b.builder.WriteString(text)
}

// Empty reports whether no fragment has arrived since the last Reset.
func (b *Buffer) Empty() bool {
	return b.builder.Len() == 0
}

// String returns the accumulated utterance so far.
func (b *Buffer) String() string {
	return b.builder.String()
}

// Take returns the accumulated utterance and resets the buffer.
func (b *Buffer) Take() string {
	out := b.builder.String()
	b.builder.Reset()
	return out
}

// Reset discards any accumulated text.
func (b *Buffer) Reset() {
	b.builder.Reset()
}
