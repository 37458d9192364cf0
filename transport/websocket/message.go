package websocket

import "encoding/json"

const ActionGameState = "game:state"

type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
