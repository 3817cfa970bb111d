package pubsub

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	amqp "github.com/ThreeDotsLabs/watermill-amqp/v2/pkg/amqp"
)

// exchangeName is the durable topic exchange all room streams go through.
const exchangeName = "chat.messages"

// AMQPConfig holds the settings for the topic-exchange backend.
type AMQPConfig struct {
	// URL is the AMQP connection URI.
	URL string
	// ProcessID names this process's private queue. Every process must use
	// a distinct value or the exchange degrades into load-balancing.
	ProcessID string
	// Ephemeral declares the queue auto-deleted. Set it when ProcessID is
	// generated per boot: the id never returns after a restart, and a
	// durable queue named after it would be orphaned on the broker.
	Ephemeral bool
}

// AMQPBridge implements Publisher and Subscriber on a topic exchange.
//
// Every published message is routed with its room topic as the routing key.
// Each process binds its own queue to the exchange with the AllRooms
// pattern, so each message is delivered to EVERY process independently —
// true broadcast. Ordering is FIFO per publishing connection only; there is
// no cross-publisher guarantee.
type AMQPBridge struct {
	pub *amqp.Publisher
	sub *amqp.Subscriber
}

// NewAMQPBridge connects to the AMQP server and declares the topology.
func NewAMQPBridge(cfg AMQPConfig) (*AMQPBridge, error) {
	logger := watermill.NewStdLogger(false, false)

	queueName := exchangeName + "." + cfg.ProcessID

	amqpConfig := amqp.NewDurablePubSubConfig(cfg.URL, func(topic string) string {
		return queueName
	})
	// One fixed topic exchange; the watermill topic becomes the routing key
	// on publish and the binding key on subscribe.
	amqpConfig.Exchange.GenerateName = func(topic string) string {
		return exchangeName
	}
	amqpConfig.Exchange.Type = "topic"
	amqpConfig.QueueBind.GenerateRoutingKey = func(topic string) string {
		return topic
	}
	amqpConfig.Publish.GenerateRoutingKey = func(topic string) string {
		return topic
	}
	if cfg.Ephemeral {
		amqpConfig.Queue.Durable = false
		amqpConfig.Queue.AutoDelete = true
	}

	pub, err := amqp.NewPublisher(amqpConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create amqp publisher: %w", err)
	}

	sub, err := amqp.NewSubscriber(amqpConfig, logger)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("failed to create amqp subscriber: %w", err)
	}

	return &AMQPBridge{pub: pub, sub: sub}, nil
}

// Publish implements the Publisher interface. The message's room topic is
// the routing key.
func (ab *AMQPBridge) Publish(ctx context.Context, msg Message) error {
	return ab.pub.Publish(msg.Topic, mapToWatermillMessage(msg))
}

// Subscribe implements the Subscriber interface. The topic is the binding
// key for this process's queue; use AllRooms to receive every room.
func (ab *AMQPBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := ab.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go consume(ctx, messages, topic, handler)
	return nil
}

// Close implements the Publisher and Subscriber interfaces.
func (ab *AMQPBridge) Close() error {
	if err := ab.pub.Close(); err != nil {
		ab.sub.Close()
		return err
	}
	return ab.sub.Close()
}
