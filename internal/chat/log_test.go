package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogSeedsSystemEntry(t *testing.T) {
	log := NewLog("you are terse")

	messages := log.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, RoleSystem, messages[0].Role)
	require.Equal(t, "you are terse", messages[0].Content)
}

func TestAppendPreservesOrderAndSystemEntry(t *testing.T) {
	log := NewLog("system")
	log.Append(RoleUser, "question")
	log.Append(RoleAssistant, "answer")
	log.Append(RoleUser, "followup")

	messages := log.Messages()
	require.Len(t, messages, 4)
	require.Equal(t, RoleSystem, messages[0].Role)
	require.Equal(t, Message{Role: RoleUser, Content: "question"}, messages[1])
	require.Equal(t, Message{Role: RoleAssistant, Content: "answer"}, messages[2])
	require.Equal(t, Message{Role: RoleUser, Content: "followup"}, messages[3])
}

func TestMessagesReturnsSnapshot(t *testing.T) {
	log := NewLog("system")
	snapshot := log.Messages()
	log.Append(RoleUser, "later")

	require.Len(t, snapshot, 1)
	require.Equal(t, 2, log.Len())
}
