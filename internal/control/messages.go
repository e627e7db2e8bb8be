// ABOUTME: Control protocol message type definitions
// ABOUTME: JSON envelopes exchanged with control clients over WebSocket
package control

import (
	"encoding/json"

	"github.com/Resonate-Protocol/resonate-daw/internal/project"
)

// Message types sent by clients
const (
	TypePlay        = "transport/play"
	TypePause       = "transport/pause"
	TypeStop        = "transport/stop"
	TypeSeek        = "transport/seek"
	TypeLoadProject = "project/load"
	TypeUpdateTrack = "track/update"
	TypePreload     = "project/preload"
)

// Message types sent by the server
const (
	TypeServerHello    = "server/hello"
	TypeTransportState = "transport/state"
	TypePreloaded      = "project/preloaded"
	TypeError          = "error"
)

// Error codes carried by error messages
const (
	CodeInvalidTransition = "invalid_transition"
	CodeEngineUnavailable = "engine_unavailable"
	CodeBadRequest        = "bad_request"
)

// Message is the top-level wrapper for all outgoing messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Inbound is a client message with its payload left encoded
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerHello is sent to every client on connect
type ServerHello struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Version   string `json:"version"`
}

// Seek is the payload of transport/seek
type Seek struct {
	Seconds float64 `json:"seconds"`
}

// LoadProject is the payload of project/load
type LoadProject struct {
	Project *project.Project `json:"project"`
}

// Preloaded reports the outcome of project/preload
type Preloaded struct {
	Failed map[string]string `json:"failed"`
}

// Error reports a rejected command
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
