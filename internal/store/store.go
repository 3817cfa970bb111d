package store

import (
	"context"

	"github.com/nfrund/roomcast/internal/domain"
)

// MessageStore durably appends message records and reads them back for
// history pages. Append is the only write: records are immutable, ids are
// assigned by the store and strictly increase in insertion order.
type MessageStore interface {
	Append(ctx context.Context, roomID, senderID int64, body string) (*domain.Message, error)
	// ListByRoom returns one page of a room's messages, newest first.
	ListByRoom(ctx context.Context, roomID int64, page, size int) ([]*domain.Message, error)
}

// RoomStore manages the room catalog. Create is idempotent over the
// unordered participant pair: a second call with the arguments swapped
// returns the existing room instead of creating a sibling.
type RoomStore interface {
	Create(ctx context.Context, hostID, guestID int64) (*domain.Room, error)
	Get(ctx context.Context, roomID int64) (*domain.Room, error)
	List(ctx context.Context) ([]*domain.Room, error)
	// ListByUser returns the rooms the user participates in, as host or
	// guest.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Room, error)
}

// UserDirectory resolves a user id to a display name. An unknown id returns
// domain.ErrUserNotFound; callers decide whether that is fatal.
type UserDirectory interface {
	ResolveName(ctx context.Context, userID int64) (string, error)
}
