package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-store/internal/entity"
)

const (
	actionState    = "game:state"
	actionTurn     = "game:turn"
	actionReset    = "game:reset"
	actionNewRound = "game:new-round"
	actionError    = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	SquareID *int                `json:"squareId,omitempty"`
	Game     *entity.DerivedGame `json:"game,omitempty"`
	Stats    *entity.Stats       `json:"stats,omitempty"`
	Action   string              `json:"action,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func encodeMessage(action string, payload Payload) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	response, err := json.Marshal(Message{
		Action:  action,
		Payload: payloadJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return response, nil
}

func statePayload(game entity.DerivedGame, stats entity.Stats) Payload {
	return Payload{
		Game:  &game,
		Stats: &stats,
	}
}
