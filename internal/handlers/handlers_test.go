package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/roomcast/internal/chat"
	"github.com/nfrund/roomcast/internal/chat/events"
	"github.com/nfrund/roomcast/internal/distributor"
	"github.com/nfrund/roomcast/internal/handlers"
	"github.com/nfrund/roomcast/internal/pubsub"
	"github.com/nfrund/roomcast/internal/sessions"
	"github.com/nfrund/roomcast/internal/store"
)

// fixture wires one process's worth of the system behind an Echo instance:
// in-memory store, in-memory broker, session registry and distributor.
type fixture struct {
	e        *echo.Echo
	store    *store.MemoryStore
	registry *sessions.Registry
	cancel   context.CancelFunc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mem := store.NewMemoryStore()
	mem.PutUser(1, "user1")
	mem.PutUser(2, "user2")

	bridge := pubsub.NewChannelBridge()
	t.Cleanup(func() { bridge.Close() })

	registry := sessions.NewRegistry()
	require.NoError(t, distributor.New(bridge, registry).Start(ctx))

	svc := chat.NewService(chat.Dependencies{
		Messages:  mem,
		Rooms:     mem,
		Users:     mem,
		Publisher: bridge,
	})

	e := echo.New()
	e.Validator = handlers.NewValidator()

	roomHandler := handlers.NewRoomHandler(svc)
	messageHandler := handlers.NewMessageHandler(svc)
	e.POST("/api/rooms", roomHandler.Create)
	e.GET("/api/rooms", roomHandler.List)
	e.GET("/api/rooms/:id/messages", roomHandler.History)
	e.POST("/api/rooms/:id/messages", messageHandler.Send)

	return &fixture{e: e, store: mem, registry: registry, cancel: cancel}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/rooms", `{"hostId":1,"guestId":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var room chat.RoomView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))
	assert.Equal(t, int64(1), room.HostID)
	assert.Equal(t, "user1", room.HostName)
	assert.Equal(t, int64(2), room.GuestID)
	assert.Equal(t, "user2", room.GuestName)

	// The swapped pair returns the same room.
	rec = f.do(http.MethodPost, "/api/rooms", `{"hostId":2,"guestId":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var swapped chat.RoomView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &swapped))
	assert.Equal(t, room.ID, swapped.ID)
}

func TestCreateRoomValidation(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{
		`{"hostId":1}`,
		`{"guestId":2}`,
		`{"hostId":0,"guestId":2}`,
		`not json`,
	} {
		rec := f.do(http.MethodPost, "/api/rooms", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

// TestSendFansOutToLocalConnections covers the single-process send path end
// to end: HTTP ingress, persistence, enrichment, broker loop, local
// broadcast to a registered connection.
func TestSendFansOutToLocalConnections(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/rooms", `{"hostId":1,"guestId":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var room chat.RoomView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))

	conn := sessions.NewConn("c", 2, room.ID)
	f.registry.Add(conn)

	rec = f.do(http.MethodPost, "/api/rooms/1/messages", `{"senderId":1,"body":"hi"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String(), "the sender gets no delivery feedback")

	select {
	case payload := <-conn.Send:
		event, err := events.DecodeMessageSent(payload)
		require.NoError(t, err)
		assert.Equal(t, room.ID, event.RoomID)
		assert.Equal(t, int64(1), event.SenderID)
		assert.Equal(t, "user1", event.SenderName)
		assert.Equal(t, "hi", event.Body)
		assert.NotZero(t, event.MessageID)
		assert.False(t, event.CreatedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("registered connection never received the broadcast")
	}
}

func TestSendToUnknownRoom(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/rooms/42/messages", `{"senderId":1,"body":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/rooms", `{"hostId":1,"guestId":2}`)

	rec := f.do(http.MethodPost, "/api/rooms/1/messages", `{"senderId":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A rejected payload has no side effects.
	msgs, err := f.store.ListByRoom(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/rooms", `{"hostId":1,"guestId":2}`)

	require.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/api/rooms/1/messages", `{"senderId":1,"body":"first"}`).Code)
	require.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/api/rooms/1/messages", `{"senderId":2,"body":"second"}`).Code)

	rec := f.do(http.MethodGet, "/api/rooms/1/messages?page=0&size=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var history []events.MessageSent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Body)
	assert.Equal(t, "user2", history[0].SenderName)
	assert.Equal(t, "first", history[1].Body)

	rec = f.do(http.MethodGet, "/api/rooms/99/messages", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRooms(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/rooms", `{"hostId":1,"guestId":2}`)
	f.do(http.MethodPost, "/api/rooms", `{"hostId":2,"guestId":3}`)

	rec := f.do(http.MethodGet, "/api/rooms", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rooms []chat.RoomView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
	assert.Len(t, rooms, 2)
}

func TestListRoomsFilteredByUser(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/rooms", `{"hostId":1,"guestId":2}`)
	f.do(http.MethodPost, "/api/rooms", `{"hostId":2,"guestId":3}`)

	rec := f.do(http.MethodGet, "/api/rooms?user=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rooms []chat.RoomView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(1), rooms[0].HostID)
	assert.Equal(t, "user1", rooms[0].HostName)

	rec = f.do(http.MethodGet, "/api/rooms?user=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
