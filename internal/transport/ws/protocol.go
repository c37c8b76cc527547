// Package ws plays Wumpus episodes against agents on the far end of a
// websocket.
package ws

import (
	"encoding/json"

	"wumpus/internal/world"
)

const Version = "1.0"

// Message types.
const (
	TypePercepts = "PERCEPTS"
	TypeAction   = "ACTION"
	TypeResult   = "RESULT"
	TypeError    = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// PerceptsMsg asks the remote agent for the action of turn Turn.
type PerceptsMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Turn            int            `json:"turn"`
	Score           int            `json:"score"`
	Percepts        world.Percepts `json:"percepts"`
}

type ActionMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Action          string `json:"action"`
}

// ResultMsg closes an episode.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RunID           string `json:"run_id,omitempty"`
	Score           int    `json:"score"`
	Outcome         string `json:"outcome"`
	Turns           int    `json:"turns"`
	Hazard          string `json:"hazard,omitempty"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Message         string `json:"message"`
}
