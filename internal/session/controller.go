package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Folusakin/Realtime-Copilot/internal/fsm"
	"github.com/Folusakin/Realtime-Copilot/internal/ipc"
)

// Controller serves IPC commands against one running session.
type Controller struct {
	logger  *slog.Logger
	session *Session
}

// NewController wires the IPC command surface to a session.
func NewController(logger *slog.Logger, session *Session) *Controller {
	return &Controller{logger: logger, session: session}
}

// Handle processes one IPC request.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		state := c.session.State()
		return ipc.Response{OK: true, State: string(state), Message: fsm.StatusLine(state)}
	case "toggle":
		if c.session.ShuttingDown() {
			return ipc.Response{OK: false, State: string(c.session.State()), Error: "session is shutting down"}
		}
		next, err := c.session.Toggle()
		if err != nil {
			return ipc.Response{OK: false, State: string(c.session.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(next), Message: fsm.StatusLine(next)}
	case "stop":
		c.session.Stop()
		return ipc.Response{OK: true, State: string(c.session.State()), Message: "shutdown requested"}
	default:
		return ipc.Response{OK: false, State: string(c.session.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}
