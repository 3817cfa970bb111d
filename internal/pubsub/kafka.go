package pubsub

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// KafkaConfig holds the settings for the log-partitioned backend.
type KafkaConfig struct {
	// Brokers is the list of bootstrap servers.
	Brokers []string
	// Topic is the single physical topic all rooms share.
	Topic string
	// Group is the consumer group id shared by the server processes.
	Group string
}

// KafkaBridge implements Publisher and Subscriber on a partitioned log.
//
// All room topics map onto one physical topic; the room topic string is the
// partition key, so messages for one room land on one partition and keep
// total order across processes. Delivery is load-balanced: within a consumer
// group each message reaches exactly ONE process, not all of them. With more
// than one process per group this is not a broadcast — clients connected to
// the other processes never see the event. Use the AMQP bridge when every
// process must fan out locally.
type KafkaBridge struct {
	pub   *kafka.Publisher
	sub   *kafka.Subscriber
	topic string
}

// NewKafkaBridge connects a publisher and a group subscriber to the brokers.
func NewKafkaBridge(cfg KafkaConfig) (*KafkaBridge, error) {
	logger := watermill.NewStdLogger(false, false)

	// Partition by the room topic so per-room ordering survives the fan-in
	// onto the shared physical topic.
	marshaler := kafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
		return msg.Metadata.Get(metaKeyTopic), nil
	})

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: marshaler,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	sub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           marshaler,
		ConsumerGroup:         cfg.Group,
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
	}, logger)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return &KafkaBridge{pub: pub, sub: sub, topic: cfg.Topic}, nil
}

// Publish implements the Publisher interface.
func (kb *KafkaBridge) Publish(ctx context.Context, msg Message) error {
	return kb.pub.Publish(kb.topic, mapToWatermillMessage(msg))
}

// Subscribe implements the Subscriber interface. The topic pattern is
// accepted for interface symmetry; the bridge always consumes the shared
// physical topic and delivers every room's messages.
func (kb *KafkaBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := kb.sub.Subscribe(ctx, kb.topic)
	if err != nil {
		return err
	}

	go consume(ctx, messages, topic, handler)
	return nil
}

// Close implements the Publisher and Subscriber interfaces.
func (kb *KafkaBridge) Close() error {
	if err := kb.pub.Close(); err != nil {
		kb.sub.Close()
		return err
	}
	return kb.sub.Close()
}
