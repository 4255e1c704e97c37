// Package outbound carries bot replies and reminders to the delivery
// service over Kafka. Delivery is fire-and-forget from the core's point of
// view: nothing downstream of the topic ever feeds back into ledger state.
package outbound

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Message is one outbound text addressed to a player.
type Message struct {
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
}

// Encode serializes the message for the topic.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode outbound message: %w", err)
	}
	return data, nil
}

// Decode deserializes a topic payload.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode outbound message: %w", err)
	}
	if m.PlayerID == "" {
		return Message{}, fmt.Errorf("outbound message missing player_id")
	}
	return m, nil
}
