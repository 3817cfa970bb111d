// Package surreal implements the store interfaces on SurrealDB.
//
// Message ids come from a counter record (counter:messages) bumped in the
// same transaction as the insert, so ids are monotonically increasing within
// the store and are never reused.
package surreal

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/roomcast/internal/database"
	"github.com/nfrund/roomcast/internal/domain"
)

// Store implements store.MessageStore, store.RoomStore and
// store.UserDirectory against a single SurrealDB connection.
type Store struct {
	db *surrealdb.DB
}

// New creates a Store on an established connection.
func New(db *surrealdb.DB) *Store {
	return &Store{db: db}
}

// messageRow is the persisted shape of a chat message. The numeric seq field
// carries the store-assigned id; the SurrealDB record id is not exposed.
type messageRow struct {
	Seq       int64     `json:"seq"`
	RoomID    int64     `json:"room_id"`
	SenderID  int64     `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type roomRow struct {
	Seq       int64     `json:"seq"`
	HostID    int64     `json:"host_id"`
	GuestID   int64     `json:"guest_id"`
	CreatedAt time.Time `json:"created_at"`
}

type userRow struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

func (r *messageRow) toDomain() *domain.Message {
	return &domain.Message{
		ID:        r.Seq,
		RoomID:    r.RoomID,
		SenderID:  r.SenderID,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
	}
}

func (r *roomRow) toDomain() *domain.Room {
	return &domain.Room{
		ID:        r.Seq,
		HostID:    r.HostID,
		GuestID:   r.GuestID,
		CreatedAt: r.CreatedAt,
	}
}

// Append implements store.MessageStore. The counter bump and the insert run
// in one transaction so a failed insert never consumes an id.
func (s *Store) Append(ctx context.Context, roomID, senderID int64, body string) (*domain.Message, error) {
	query := `
		BEGIN;
		LET $seq = (UPSERT ONLY counter:messages SET value += 1 RETURN AFTER).value;
		CREATE message CONTENT {
			seq: $seq,
			room_id: $room_id,
			sender_id: $sender_id,
			body: $body,
			created_at: time::now()
		} RETURN AFTER;
		COMMIT;
	`
	params := map[string]any{
		"room_id":   roomID,
		"sender_id": senderID,
		"body":      body,
	}

	row, err := database.QueryOne[messageRow](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("message was not created")
	}
	return row.toDomain(), nil
}

// ListByRoom implements store.MessageStore, newest first. Page numbering
// starts at 0.
func (s *Store) ListByRoom(ctx context.Context, roomID int64, page, size int) ([]*domain.Message, error) {
	query := `
		SELECT * FROM message WHERE room_id = $room_id
		ORDER BY seq DESC LIMIT $limit START $start
	`
	params := map[string]any{
		"room_id": roomID,
		"limit":   size,
		"start":   page * size,
	}

	rows, err := database.Query[messageRow](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	messages := make([]*domain.Message, len(rows))
	for i := range rows {
		messages[i] = rows[i].toDomain()
	}
	return messages, nil
}

// Create implements store.RoomStore. The two-sided WHERE makes the pair
// unordered: a room created as (1,2) is found again when asked for (2,1).
func (s *Store) Create(ctx context.Context, hostID, guestID int64) (*domain.Room, error) {
	existing, err := s.findByPair(ctx, hostID, guestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	query := `
		BEGIN;
		LET $seq = (UPSERT ONLY counter:rooms SET value += 1 RETURN AFTER).value;
		CREATE room CONTENT {
			seq: $seq,
			host_id: $host_id,
			guest_id: $guest_id,
			created_at: time::now()
		} RETURN AFTER;
		COMMIT;
	`
	params := map[string]any{
		"host_id":  hostID,
		"guest_id": guestID,
	}

	row, err := database.QueryOne[roomRow](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("room was not created")
	}
	return row.toDomain(), nil
}

func (s *Store) findByPair(ctx context.Context, a, b int64) (*domain.Room, error) {
	query := `
		SELECT * FROM room
		WHERE (host_id = $a AND guest_id = $b) OR (host_id = $b AND guest_id = $a)
	`
	row, err := database.QueryOne[roomRow](ctx, s.db, query, map[string]any{"a": a, "b": b})
	if err != nil {
		return nil, fmt.Errorf("failed to look up room pair: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	return row.toDomain(), nil
}

// Get implements store.RoomStore.
func (s *Store) Get(ctx context.Context, roomID int64) (*domain.Room, error) {
	query := `SELECT * FROM room WHERE seq = $seq`
	row, err := database.QueryOne[roomRow](ctx, s.db, query, map[string]any{"seq": roomID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch room: %w", err)
	}
	if row == nil {
		return nil, domain.ErrRoomNotFound
	}
	return row.toDomain(), nil
}

// List implements store.RoomStore.
func (s *Store) List(ctx context.Context) ([]*domain.Room, error) {
	query := `SELECT * FROM room ORDER BY seq ASC`
	rows, err := database.Query[roomRow](ctx, s.db, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	rooms := make([]*domain.Room, len(rows))
	for i := range rows {
		rooms[i] = rows[i].toDomain()
	}
	return rooms, nil
}

// ListByUser implements store.RoomStore.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]*domain.Room, error) {
	query := `
		SELECT * FROM room WHERE host_id = $user_id OR guest_id = $user_id
		ORDER BY seq ASC
	`
	rows, err := database.Query[roomRow](ctx, s.db, query, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms for user: %w", err)
	}

	rooms := make([]*domain.Room, len(rows))
	for i := range rows {
		rooms[i] = rows[i].toDomain()
	}
	return rooms, nil
}

// ResolveName implements store.UserDirectory.
func (s *Store) ResolveName(ctx context.Context, userID int64) (string, error) {
	query := `SELECT * FROM user WHERE user_id = $user_id`
	row, err := database.QueryOne[userRow](ctx, s.db, query, map[string]any{"user_id": userID})
	if err != nil {
		return "", fmt.Errorf("failed to resolve user name: %w", err)
	}
	if row == nil {
		return "", domain.ErrUserNotFound
	}
	return row.Name, nil
}
