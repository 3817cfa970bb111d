package handlers_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
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

// newWSFixture stands up one process with its WebSocket endpoint on a test
// server.
func newWSFixture(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mem := store.NewMemoryStore()
	mem.PutUser(1, "user1")
	mem.PutUser(2, "user2")
	_, err := mem.Create(ctx, 1, 2)
	require.NoError(t, err)

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
	wsHandler := handlers.NewWSHandler(svc, registry)
	e.GET("/ws/rooms/:id", wsHandler.Attach)

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server, mem
}

func dial(t *testing.T, ctx context.Context, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

// TestWebSocketSendAndReceive runs the full loop over a real socket: a
// client frame goes through ingestion and the broker, and comes back to
// both connected clients as the enriched broadcast — the sender included.
func TestWebSocketSendAndReceive(t *testing.T) {
	server, _ := newWSFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender := dial(t, ctx, server, "/ws/rooms/1?user=1")
	defer sender.Close(websocket.StatusNormalClosure, "done")
	peer := dial(t, ctx, server, "/ws/rooms/1?user=2")
	defer peer.Close(websocket.StatusNormalClosure, "done")

	require.NoError(t, sender.Write(ctx, websocket.MessageText, []byte(`{"body":"hi"}`)))

	for name, conn := range map[string]*websocket.Conn{"sender": sender, "peer": peer} {
		_, payload, err := conn.Read(ctx)
		require.NoError(t, err, "%s read", name)

		event, err := events.DecodeMessageSent(payload)
		require.NoError(t, err, "%s decode", name)
		assert.Equal(t, int64(1), event.RoomID, name)
		assert.Equal(t, int64(1), event.SenderID, name)
		assert.Equal(t, "user1", event.SenderName, name)
		assert.Equal(t, "hi", event.Body, name)
	}
}

func TestWebSocketRejectsUnknownRoom(t *testing.T) {
	server, _ := newWSFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/rooms/42?user=1"
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, 404, resp.StatusCode)
	}
}

func TestWebSocketMalformedFramesAreDropped(t *testing.T) {
	server, mem := newWSFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server, "/ws/rooms/1?user=1")
	defer conn.Close(websocket.StatusNormalClosure, "done")

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`not json`)))
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"body":""}`)))

	// Give the read pump a moment, then confirm nothing was persisted.
	time.Sleep(200 * time.Millisecond)
	msgs, err := mem.ListByRoom(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
