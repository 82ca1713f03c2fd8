// Package ipc carries control commands between a running copilot session
// and later CLI invocations over a unix socket. One request and one
// response per connection, newline-delimited JSON.
package ipc

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
