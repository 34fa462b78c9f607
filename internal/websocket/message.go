package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// NewMessage encodes a message ready to be queued on a client.
func NewMessage(action string, payload any) []byte {
	data, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return NewErrorMessage("internal error")
	}
	return data
}

// NewErrorMessage encodes an error notice for a single client.
func NewErrorMessage(message string) []byte {
	data, _ := json.Marshal(Message{Action: "error", Payload: map[string]string{"message": message}})
	return data
}
