package signal

import (
	"encoding/json"

	"github.com/dkeye/peercalls/internal/domain"
)

// Message is the envelope of every frame exchanged with the signaling server.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeReady  = "ready"
	TypeSignal = "signal"
	TypePong   = "pong"

	TypeUsers = "users"
	TypePing  = "ping"
	TypeError = "error"
)

type ReadyPayload struct {
	Room   string               `json:"room"`
	UserID domain.ParticipantID `json:"userId"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func newMessage(typ string, payload any) ([]byte, error) {
	msg := Message{Type: typ}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = b
	}
	return json.Marshal(msg)
}
