// Package chat implements the message ingestion pipeline and the thin
// room/history surfaces around it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/roomcast/internal/chat/events"
	"github.com/nfrund/roomcast/internal/domain"
	"github.com/nfrund/roomcast/internal/pubsub"
	"github.com/nfrund/roomcast/internal/store"
)

// Dependencies holds the collaborators the chat service requires.
// This struct is used for constructor injection to make dependencies explicit.
type Dependencies struct {
	Messages  store.MessageStore
	Rooms     store.RoomStore
	Users     store.UserDirectory
	Publisher pubsub.Publisher
}

// Service orchestrates the send pipeline: durable append, sender-name
// enrichment, broker publish. It never touches local connections — the
// ingesting process's own clients get the event through the broker loop
// like everyone else's, keeping all processes symmetric.
type Service struct {
	messages  store.MessageStore
	rooms     store.RoomStore
	users     store.UserDirectory
	publisher pubsub.Publisher
}

// NewService creates a chat service, injecting its dependencies.
func NewService(deps Dependencies) *Service {
	return &Service{
		messages:  deps.Messages,
		rooms:     deps.Rooms,
		users:     deps.Users,
		publisher: deps.Publisher,
	}
}

// Send runs the ingestion pipeline for one message. The persistence write is
// synchronous: if it fails, Send aborts and nothing is published. The
// broker publish is fire-and-forget — Send returns without waiting for it,
// and a publish failure is logged, never surfaced to the sender. The record
// then exists durably but is never distributed; that gap is a documented
// property of this design, not an accident.
func (s *Service) Send(ctx context.Context, roomID, senderID int64, body string) error {
	if _, err := s.rooms.Get(ctx, roomID); err != nil {
		return fmt.Errorf("room lookup failed: %w", err)
	}

	msg, err := s.messages.Append(ctx, roomID, senderID, body)
	if err != nil {
		return fmt.Errorf("failed to persist message: %w", err)
	}

	event := events.NewMessageSent(msg, s.resolveName(ctx, senderID))

	// Detached from the request context so an early client disconnect
	// cannot cancel an in-flight publish.
	go s.publish(context.WithoutCancel(ctx), event)

	return nil
}

// resolveName looks up a user's display name. A miss is not an error for
// any caller: the sentinel name is substituted instead.
func (s *Service) resolveName(ctx context.Context, userID int64) string {
	name, err := s.users.ResolveName(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			slog.Error("User name lookup failed", "user_id", userID, "error", err)
		}
		return domain.UnknownUserName
	}
	return name
}

func (s *Service) publish(ctx context.Context, event events.MessageSent) {
	payload, err := event.Encode()
	if err != nil {
		slog.Error("Failed to encode message event", "message_id", event.MessageID, "error", err)
		return
	}

	msg := pubsub.Message{
		Topic:   pubsub.RoomTopic(event.RoomID),
		RoomID:  event.RoomID,
		Payload: payload,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		slog.Error("Failed to publish message event",
			"message_id", event.MessageID,
			"room_id", event.RoomID,
			"error", err)
	}
}

// RoomView is a room enriched with both participants' display names, so
// clients can render the room without further lookups.
type RoomView struct {
	ID        int64     `json:"id"`
	HostID    int64     `json:"hostId"`
	HostName  string    `json:"hostName"`
	GuestID   int64     `json:"guestId"`
	GuestName string    `json:"guestName"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Service) roomView(ctx context.Context, room *domain.Room) RoomView {
	return RoomView{
		ID:        room.ID,
		HostID:    room.HostID,
		HostName:  s.resolveName(ctx, room.HostID),
		GuestID:   room.GuestID,
		GuestName: s.resolveName(ctx, room.GuestID),
		CreatedAt: room.CreatedAt,
	}
}

func (s *Service) roomViews(ctx context.Context, rooms []*domain.Room) []RoomView {
	views := make([]RoomView, len(rooms))
	for i, room := range rooms {
		views[i] = s.roomView(ctx, room)
	}
	return views
}

// CreateRoom returns the room for the unordered participant pair, creating
// it on first request. Swapping host and guest yields the same room.
func (s *Service) CreateRoom(ctx context.Context, hostID, guestID int64) (RoomView, error) {
	room, err := s.rooms.Create(ctx, hostID, guestID)
	if err != nil {
		return RoomView{}, err
	}
	return s.roomView(ctx, room), nil
}

// Room fetches a room by id.
func (s *Service) Room(ctx context.Context, roomID int64) (*domain.Room, error) {
	return s.rooms.Get(ctx, roomID)
}

// Rooms lists all rooms.
func (s *Service) Rooms(ctx context.Context) ([]RoomView, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.roomViews(ctx, rooms), nil
}

// RoomsFor lists the rooms the user participates in, as host or guest.
func (s *Service) RoomsFor(ctx context.Context, userID int64) ([]RoomView, error) {
	rooms, err := s.rooms.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.roomViews(ctx, rooms), nil
}

// History returns one page of a room's messages, newest first, each
// enriched with the sender's display name as of read time.
func (s *Service) History(ctx context.Context, roomID int64, page, size int) ([]events.MessageSent, error) {
	if size <= 0 {
		size = 50
	}

	msgs, err := s.messages.ListByRoom(ctx, roomID, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	history := make([]events.MessageSent, len(msgs))
	for i, msg := range msgs {
		history[i] = events.NewMessageSent(msg, s.resolveName(ctx, msg.SenderID))
	}
	return history, nil
}
