// Package sessions holds the per-process table mapping a room to its live
// local client connections. It is an explicit, lifecycle-owned component —
// constructed once per process and handed to whoever needs it — so tests can
// substitute it or inspect it directly.
package sessions

import (
	"log/slog"
	"sync"
)

// sendBuffer is the per-connection outbound queue size. A connection whose
// buffer is full is treated as dead and evicted rather than stalling fan-out
// to its roommates.
const sendBuffer = 256

// Conn represents a single connected client registered for one room.
type Conn struct {
	// ID is the unique identifier for the connection.
	ID string
	// UserID identifies the participant behind the connection.
	UserID int64
	// RoomID is the room this connection is registered for.
	RoomID int64
	// Send is the buffered channel of outbound payloads. The registry
	// writes to it; the transport drains it. The registry closes it when
	// the connection is removed.
	Send chan []byte
}

// NewConn creates a connection handle with its send buffer allocated.
func NewConn(id string, userID, roomID int64) *Conn {
	return &Conn{
		ID:     id,
		UserID: userID,
		RoomID: roomID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// Registry maps room ids to the set of live local connections.
type Registry struct {
	mu    sync.RWMutex
	rooms map[int64]map[*Conn]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[int64]map[*Conn]struct{}),
	}
}

// Add registers a connection for its room.
func (r *Registry) Add(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[conn.RoomID] == nil {
		r.rooms[conn.RoomID] = make(map[*Conn]struct{})
	}
	r.rooms[conn.RoomID][conn] = struct{}{}
	slog.Info("Connection registered", "conn_id", conn.ID, "room_id", conn.RoomID, "room_conns", len(r.rooms[conn.RoomID]))
}

// Remove unregisters a connection and closes its send channel. Removing a
// connection that is not registered is a no-op.
func (r *Registry) Remove(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(conn)
}

func (r *Registry) removeLocked(conn *Conn) {
	set, ok := r.rooms[conn.RoomID]
	if !ok {
		return
	}
	if _, ok := set[conn]; !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(r.rooms, conn.RoomID)
	}
	close(conn.Send)
	slog.Info("Connection unregistered", "conn_id", conn.ID, "room_id", conn.RoomID)
}

// Count returns the number of live connections for a room.
func (r *Registry) Count(roomID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// BroadcastLocal sends the payload to every connection currently registered
// for the room on this process. The sends happen under the read lock: Send
// channels are only ever closed under the write lock (removeLocked), so a
// connection dropping mid-broadcast cannot close a channel while it is being
// sent on. Each send is non-blocking; a stalled connection is evicted after
// the pass instead of holding up the rest of the room.
func (r *Registry) BroadcastLocal(roomID int64, payload []byte) {
	r.mu.RLock()
	var stalled []*Conn
	for conn := range r.rooms[roomID] {
		select {
		case conn.Send <- payload:
		default:
			stalled = append(stalled, conn)
		}
	}
	r.mu.RUnlock()

	if len(stalled) > 0 {
		r.mu.Lock()
		for _, conn := range stalled {
			slog.Warn("Evicting stalled connection", "conn_id", conn.ID, "room_id", roomID)
			r.removeLocked(conn)
		}
		r.mu.Unlock()
	}
}
