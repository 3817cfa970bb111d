package pubsub

import (
	"fmt"
	"strconv"
	"strings"
)

// Topic key scheme.
//
// A room's broker topic is a pure, injective function of its id:
// "chat.room.<decimal id>". The segments are dot-delimited so the key is a
// legal AMQP topic-exchange routing key, and the variable segment is purely
// numeric so it can never collide with the delimiter or the wildcard
// characters. The Kafka bridge reuses the same string as its partition key.
const (
	roomTopicPrefix = "chat.room."

	// AllRooms is the consumer-side binding pattern covering every room.
	AllRooms = "chat.room.#"
)

// RoomTopic returns the broker topic for a room.
func RoomTopic(roomID int64) string {
	return roomTopicPrefix + strconv.FormatInt(roomID, 10)
}

// ParseRoomTopic extracts the room id from a room topic.
func ParseRoomTopic(topic string) (int64, error) {
	raw, ok := strings.CutPrefix(topic, roomTopicPrefix)
	if !ok {
		return 0, fmt.Errorf("not a room topic: %q", topic)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed room topic %q: %w", topic, err)
	}
	return id, nil
}
