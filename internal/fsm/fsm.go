// Package fsm defines the capture toggle state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	// StatePaused is the initial state: audio is captured but not sent,
	// and a final transcript arriving here completes the utterance.
	StatePaused State = "paused"
	// StateActive streams audio to the transcription service.
	StateActive State = "active"
)

const (
	EventToggle Event = "toggle"
)

// Transition applies one event to the current state.
func Transition(current State, event Event) (State, error) {
	if event != EventToggle {
		return current, fmt.Errorf("unknown event %q", event)
	}

	switch current {
	case StatePaused:
		return StateActive, nil
	case StateActive:
		return StatePaused, nil
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// StatusLine returns the human-readable line emitted on each transition.
func StatusLine(state State) string {
	switch state {
	case StateActive:
		return "Transcription started. Toggle again to pause..."
	case StatePaused:
		return "Transcription paused. Toggle again to continue..."
	default:
		return fmt.Sprintf("Transcription in unknown state %q", state)
	}
}
