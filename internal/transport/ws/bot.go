package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"wumpus/internal/engine"
)

// ErrEpisodeAborted is returned by Play when the server ends the episode
// with an ERROR message.
var ErrEpisodeAborted = errors.New("episode aborted by server")

func Dial(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

// Play answers every PERCEPTS message with the local agent's decision until
// the server sends RESULT. Cancelling ctx closes the connection.
func Play(ctx context.Context, conn *websocket.Conn, agent engine.Agent) (ResultMsg, error) {
	if agent == nil {
		return ResultMsg{}, errors.New("agent is required")
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ResultMsg{}, ctxErr
			}
			return ResultMsg{}, fmt.Errorf("read: %w", err)
		}
		base, err := DecodeBase(raw)
		if err != nil {
			continue
		}
		switch base.Type {
		case TypePercepts:
			var msg PerceptsMsg
			if err := json.Unmarshal(raw, &msg); err != nil {
				return ResultMsg{}, fmt.Errorf("decode percepts: %w", err)
			}
			action, err := agent.Decide(ctx, msg.Percepts)
			if err != nil {
				return ResultMsg{}, fmt.Errorf("agent decision on turn %d: %w", msg.Turn, err)
			}
			if err := writeJSON(conn, ActionMsg{Type: TypeAction, ProtocolVersion: Version, Action: action.String()}); err != nil {
				return ResultMsg{}, fmt.Errorf("send action: %w", err)
			}
		case TypeResult:
			var msg ResultMsg
			if err := json.Unmarshal(raw, &msg); err != nil {
				return ResultMsg{}, fmt.Errorf("decode result: %w", err)
			}
			return msg, nil
		case TypeError:
			var msg ErrorMsg
			_ = json.Unmarshal(raw, &msg)
			return ResultMsg{}, fmt.Errorf("%w: %s", ErrEpisodeAborted, msg.Message)
		}
	}
}
