package domain

import "time"

// UnknownUserName is the display name substituted when a sender id cannot be
// resolved against the user directory. A missing user never fails the
// message pipeline.
const UnknownUserName = "Unknown"

// Room is a rendezvous scope between exactly two participants. The pair is
// stored ordered (host created the room) but compared unordered: (1,2) and
// (2,1) denote the same room, and at most one room exists per pair.
type Room struct {
	ID        int64     `json:"id"`
	HostID    int64     `json:"hostId"`
	GuestID   int64     `json:"guestId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Matches reports whether the room connects the given unordered pair.
func (r Room) Matches(a, b int64) bool {
	return (r.HostID == a && r.GuestID == b) || (r.HostID == b && r.GuestID == a)
}

// Message is a persisted chat message record. The store assigns ID and
// CreatedAt at append time; records are immutable and append-only.
type Message struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"roomId"`
	SenderID  int64     `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is a participant known to the user directory.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
