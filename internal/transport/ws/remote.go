package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"wumpus/internal/engine"
	"wumpus/internal/world"
)

// RemoteAgent is the engine-side stand-in for an agent across a websocket.
// Decide blocks until the peer answers; there is no deadline.
type RemoteAgent struct {
	conn *websocket.Conn

	mu    sync.Mutex
	turns int
	score int
}

func NewRemoteAgent(conn *websocket.Conn) *RemoteAgent {
	return &RemoteAgent{conn: conn}
}

// Observe tracks the score and turn count reported in PERCEPTS.
func (a *RemoteAgent) Observe(rec engine.TurnRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.turns = rec.Turn
	a.score = rec.Score
}

func (a *RemoteAgent) Decide(_ context.Context, percepts world.Percepts) (engine.Action, error) {
	a.mu.Lock()
	msg := PerceptsMsg{
		Type:            TypePercepts,
		ProtocolVersion: Version,
		Turn:            a.turns + 1,
		Score:           a.score,
		Percepts:        percepts,
	}
	a.mu.Unlock()

	if err := writeJSON(a.conn, msg); err != nil {
		return 0, fmt.Errorf("send percepts: %w", err)
	}
	for {
		_, raw, err := a.conn.ReadMessage()
		if err != nil {
			return 0, fmt.Errorf("read action: %w", err)
		}
		base, err := DecodeBase(raw)
		if err != nil || base.Type != TypeAction {
			continue
		}
		var act ActionMsg
		if err := json.Unmarshal(raw, &act); err != nil {
			return 0, fmt.Errorf("decode action: %w", err)
		}
		if act.ProtocolVersion != Version {
			return 0, fmt.Errorf("bad protocol_version %q", act.ProtocolVersion)
		}
		return engine.ParseAction(act.Action)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}
