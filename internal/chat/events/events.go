// Package events defines the wire-ready event produced for every persisted
// chat message.
package events

import (
	"encoding/json"
	"time"

	"github.com/nfrund/roomcast/internal/domain"
)

// MessageSent is the enriched, distributable form of a persisted message.
// It is built exactly once per send and carries everything a receiving
// process needs to fan out locally. SenderName is resolved at enrichment
// time and never re-validated: a later rename in the user directory does not
// touch events already in flight.
type MessageSent struct {
	MessageID  int64     `json:"messageId"`
	RoomID     int64     `json:"roomId"`
	SenderID   int64     `json:"senderId"`
	SenderName string    `json:"senderName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewMessageSent enriches a persisted record with the resolved sender name.
// All non-name fields are taken from the record unchanged.
func NewMessageSent(msg *domain.Message, senderName string) MessageSent {
	return MessageSent{
		MessageID:  msg.ID,
		RoomID:     msg.RoomID,
		SenderID:   msg.SenderID,
		SenderName: senderName,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
	}
}

// Encode serializes the event for the broker.
func (e MessageSent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeMessageSent parses an event received from the broker.
func DecodeMessageSent(payload []byte) (MessageSent, error) {
	var e MessageSent
	err := json.Unmarshal(payload, &e)
	return e, err
}
