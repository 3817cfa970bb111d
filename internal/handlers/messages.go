package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/roomcast/internal/chat"
	"github.com/nfrund/roomcast/internal/domain"
)

// MessageHandler serves the REST ingress for message sends.
type MessageHandler struct {
	service *chat.Service
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(service *chat.Service) *MessageHandler {
	return &MessageHandler{service: service}
}

// Send handles POST /api/rooms/:id/messages. A 202 means the message was
// durably persisted and queued for distribution; delivery itself is
// fire-and-forget, so no delivery confirmation flows back through this
// response. Confirmation, if any, arrives over the same broadcast path as
// for any other subscriber.
func (h *MessageHandler) Send(c echo.Context) error {
	roomID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid room id")
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.Send(c.Request().Context(), roomID, req.SenderID, req.Body); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "room not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to accept message")
	}

	return c.NoContent(http.StatusAccepted)
}
