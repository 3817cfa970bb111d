package pubsub

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	// Metadata keys used to transfer our Message structure fields through
	// watermill's message.
	metaKeyRoomID = "room_id"
	metaKeyTopic  = "topic"
)

// mapToWatermillMessage converts our pubsub.Message to a watermill message.
func mapToWatermillMessage(msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)

	wmMsg.Metadata.Set(metaKeyRoomID, strconv.FormatInt(msg.RoomID, 10))
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)

	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}

	return wmMsg
}

// mapToPubSubMessage converts a watermill message back to our internal
// pubsub.Message.
func mapToPubSubMessage(wmMsg *message.Message) Message {
	roomID, _ := strconv.ParseInt(wmMsg.Metadata.Get(metaKeyRoomID), 10, 64)
	topic := wmMsg.Metadata.Get(metaKeyTopic)

	metadata := make(map[string]string)
	for k, v := range wmMsg.Metadata {
		if k != metaKeyRoomID && k != metaKeyTopic {
			metadata[k] = v
		}
	}

	return Message{
		Topic:    topic,
		RoomID:   roomID,
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// consume drains a watermill subscription, handing each message to the
// handler and acking or nacking based on its result. It returns when the
// channel closes.
func consume(ctx context.Context, messages <-chan *message.Message, topic string, handler Handler) {
	for wmMsg := range messages {
		msg := mapToPubSubMessage(wmMsg)

		if err := handler(ctx, msg); err != nil {
			slog.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			wmMsg.Nack()
		} else {
			wmMsg.Ack()
		}
	}
	slog.Debug("Subscription message loop ended", "topic", topic)
}

// ChannelBridge implements Publisher and Subscriber on watermill's GoChannel.
// It is process-local: every subscriber in this process receives every
// published message, which makes it the default for single-process runs and
// the broker fake for tests. All room topics collapse onto one internal
// stream topic so one Subscribe(AllRooms) call sees every room.
type ChannelBridge struct {
	pubSub *gochannel.GoChannel
}

// streamTopic is the single internal gochannel topic all rooms share.
const streamTopic = "chat.messages"

// NewChannelBridge initializes an in-memory bridge.
func NewChannelBridge() *ChannelBridge {
	logger := watermill.NewStdLogger(false, false)
	return &ChannelBridge{
		pubSub: gochannel.NewGoChannel(gochannel.Config{}, logger),
	}
}

// Publish implements the Publisher interface.
func (cb *ChannelBridge) Publish(ctx context.Context, msg Message) error {
	return cb.pubSub.Publish(streamTopic, mapToWatermillMessage(msg))
}

// Subscribe implements the Subscriber interface. The topic pattern is
// accepted for interface symmetry; the in-memory stream always carries
// every room.
func (cb *ChannelBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := cb.pubSub.Subscribe(ctx, streamTopic)
	if err != nil {
		return err
	}

	go consume(ctx, messages, topic, handler)
	return nil
}

// Close implements the Publisher and Subscriber interfaces.
func (cb *ChannelBridge) Close() error {
	return cb.pubSub.Close()
}
