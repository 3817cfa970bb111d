package store

import (
	"context"
	"sync"
	"time"

	"github.com/nfrund/roomcast/internal/domain"
)

// MemoryStore is an in-process implementation of MessageStore, RoomStore and
// UserDirectory. It backs the "memory" store driver and is the store fake
// used throughout the tests.
type MemoryStore struct {
	mu         sync.Mutex
	messages   []*domain.Message
	rooms      []*domain.Room
	users      map[int64]string
	nextMsgID  int64
	nextRoomID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int64]string),
		nextMsgID:  1,
		nextRoomID: 1,
	}
}

// Append implements MessageStore. Ids are assigned from a single counter, so
// they strictly increase in insertion order across all rooms.
func (s *MemoryStore) Append(ctx context.Context, roomID, senderID int64, body string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := &domain.Message{
		ID:        s.nextMsgID,
		RoomID:    roomID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	s.nextMsgID++
	s.messages = append(s.messages, msg)
	return msg, nil
}

// ListByRoom implements MessageStore, returning the requested page newest
// first. Page numbering starts at 0.
func (s *MemoryStore) ListByRoom(ctx context.Context, roomID int64, page, size int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inRoom []*domain.Message
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].RoomID == roomID {
			inRoom = append(inRoom, s.messages[i])
		}
	}

	start := page * size
	if start >= len(inRoom) {
		return nil, nil
	}
	end := start + size
	if end > len(inRoom) {
		end = len(inRoom)
	}
	return inRoom[start:end], nil
}

// Create implements RoomStore. The unordered pair check makes the call
// idempotent: (1,2) and (2,1) yield the same room.
func (s *MemoryStore) Create(ctx context.Context, hostID, guestID int64) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rooms {
		if r.Matches(hostID, guestID) {
			return r, nil
		}
	}

	room := &domain.Room{
		ID:        s.nextRoomID,
		HostID:    hostID,
		GuestID:   guestID,
		CreatedAt: time.Now().UTC(),
	}
	s.nextRoomID++
	s.rooms = append(s.rooms, room)
	return room, nil
}

// Get implements RoomStore.
func (s *MemoryStore) Get(ctx context.Context, roomID int64) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rooms {
		if r.ID == roomID {
			return r, nil
		}
	}
	return nil, domain.ErrRoomNotFound
}

// List implements RoomStore.
func (s *MemoryStore) List(ctx context.Context) ([]*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]*domain.Room, len(s.rooms))
	copy(rooms, s.rooms)
	return rooms, nil
}

// ListByUser implements RoomStore.
func (s *MemoryStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rooms []*domain.Room
	for _, r := range s.rooms {
		if r.HostID == userID || r.GuestID == userID {
			rooms = append(rooms, r)
		}
	}
	return rooms, nil
}

// PutUser seeds the user directory.
func (s *MemoryStore) PutUser(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = name
}

// SeedDemoData populates the directory with three demo users and two rooms
// for user 1. The memory driver has no registration surface, so without a
// seed every sender would resolve to the unknown-name sentinel.
func (s *MemoryStore) SeedDemoData() {
	s.PutUser(1, "user1")
	s.PutUser(2, "user2")
	s.PutUser(3, "user3")
	s.Create(context.Background(), 1, 2)
	s.Create(context.Background(), 1, 3)
}

// ResolveName implements UserDirectory.
func (s *MemoryStore) ResolveName(ctx context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.users[userID]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return name, nil
}
