package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToggleFlipsBetweenStates(t *testing.T) {
	next, err := Transition(StatePaused, EventToggle)
	require.NoError(t, err)
	require.Equal(t, StateActive, next)

	next, err = Transition(next, EventToggle)
	require.NoError(t, err)
	require.Equal(t, StatePaused, next)
}

func TestUnknownEventRejected(t *testing.T) {
	next, err := Transition(StateActive, Event("bogus"))
	require.Error(t, err)
	require.Equal(t, StateActive, next)
}

func TestUnknownStateRejected(t *testing.T) {
	_, err := Transition(State("limbo"), EventToggle)
	require.Error(t, err)
}

func TestStatusLines(t *testing.T) {
	require.Contains(t, StatusLine(StateActive), "started")
	require.Contains(t, StatusLine(StatePaused), "paused")
}
