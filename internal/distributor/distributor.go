// Package distributor is the consumer side of the fan-out: it subscribes to
// the broker and rebroadcasts every received event to this process's local
// connections.
package distributor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/roomcast/internal/chat/events"
	"github.com/nfrund/roomcast/internal/pubsub"
	"github.com/nfrund/roomcast/internal/sessions"
)

// Distributor forwards broker events to the local session registry. It is a
// pure routing hop: no transformation, no persistence, no deduplication —
// if an at-least-once backend delivers a duplicate, the duplicate is
// forwarded as-is.
type Distributor struct {
	subscriber pubsub.Subscriber
	registry   *sessions.Registry
}

// New creates a distributor for this process's registry.
func New(sub pubsub.Subscriber, registry *sessions.Registry) *Distributor {
	return &Distributor{
		subscriber: sub,
		registry:   registry,
	}
}

// Start subscribes to every room's stream. The subscription runs in the
// background until the context is canceled. A subscription failure affects
// only this process; other processes keep consuming.
func (d *Distributor) Start(ctx context.Context) error {
	slog.Info("Starting message distributor")

	if err := d.subscriber.Subscribe(ctx, pubsub.AllRooms, d.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to room streams: %w", err)
	}
	return nil
}

// handleMessage dispatches one received event to the room's local
// connections, exactly once per receipt.
func (d *Distributor) handleMessage(ctx context.Context, msg pubsub.Message) error {
	event, err := events.DecodeMessageSent(msg.Payload)
	if err != nil {
		slog.Error("Failed to decode message event", "topic", msg.Topic, "error", err)
		return err
	}

	d.registry.BroadcastLocal(event.RoomID, msg.Payload)
	return nil
}
