package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/roomcast/internal/chat"
	"github.com/nfrund/roomcast/internal/domain"
	"github.com/nfrund/roomcast/internal/sessions"
)

const writeTimeout = 10 * time.Second

// WSHandler terminates client WebSocket connections for a room. Each
// accepted connection is registered in the session registry so the
// distributor's local broadcasts reach it; frames the client sends are fed
// into the ingestion pipeline.
type WSHandler struct {
	service  *chat.Service
	registry *sessions.Registry
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(service *chat.Service, registry *sessions.Registry) *WSHandler {
	return &WSHandler{service: service, registry: registry}
}

// inboundFrame is the shape of a message frame sent by a client. Everything
// else (id, sender name, timestamp) is server-assigned.
type inboundFrame struct {
	Body string `json:"body"`
}

// Attach handles GET /ws/rooms/:id?user=. It upgrades the connection,
// registers it for the room and runs the read/write pumps until either side
// closes.
func (h *WSHandler) Attach(c echo.Context) error {
	roomID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid room id")
	}
	userID, err := parseID(c.QueryParam("user"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	if _, err := h.service.Room(c.Request().Context(), roomID); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "room not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch room")
	}

	wsConn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true, // In production, check origin.
	})
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return err
	}

	conn := sessions.NewConn(uuid.NewString(), userID, roomID)
	h.registry.Add(conn)

	go h.writePump(conn, wsConn)
	go h.readPump(conn, wsConn)

	return nil
}

// readPump feeds client frames into the ingestion pipeline. Send results
// are intentionally not reported back over the socket: the client learns of
// its own message through the broadcast loop, the same way every other
// subscriber does.
func (h *WSHandler) readPump(conn *sessions.Conn, wsConn *websocket.Conn) {
	defer func() {
		h.registry.Remove(conn)
		wsConn.Close(websocket.StatusNormalClosure, "Client disconnected")
	}()

	for {
		_, payload, err := wsConn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally by client", "conn_id", conn.ID)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "conn_id", conn.ID, "error", err)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil || frame.Body == "" {
			slog.Warn("Dropping malformed client frame", "conn_id", conn.ID)
			continue
		}

		if err := h.service.Send(context.Background(), conn.RoomID, conn.UserID, frame.Body); err != nil {
			slog.Error("Failed to ingest client message", "conn_id", conn.ID, "error", err)
		}
	}
}

// writePump drains the connection's send channel onto the socket. It exits
// when the registry closes the channel.
func (h *WSHandler) writePump(conn *sessions.Conn, wsConn *websocket.Conn) {
	defer func() {
		wsConn.Close(websocket.StatusNormalClosure, "Server-side cleanup")
	}()

	for payload := range conn.Send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := wsConn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "conn_id", conn.ID, "error", err)
			return
		}
	}
}
