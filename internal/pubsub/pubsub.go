// Package pubsub is the inter-process broker abstraction used to fan chat
// events out to every server process. Backends are selected by explicit
// configuration at startup; they differ materially in delivery semantics,
// which each bridge documents.
package pubsub

import (
	"context"
)

// Message is the structure passed between processes on the broker.
// It is intentionally simple to act as a wrapper for raw data.
type Message struct {
	// Topic identifies the room stream the message belongs to,
	// e.g. "chat.room.42". See topics.go for the key scheme.
	Topic string
	// RoomID identifies the room the message belongs to.
	RoomID int64
	// Payload contains the encoded event data.
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context.
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the broker.
type Subscriber interface {
	// Subscribe starts listening to the given topic pattern, processing
	// messages with the handler. The subscription runs in the background;
	// Subscribe returns once it is active.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
