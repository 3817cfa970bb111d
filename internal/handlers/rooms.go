package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/roomcast/internal/chat"
	"github.com/nfrund/roomcast/internal/domain"
)

// RoomHandler serves the room-management and history surfaces. These are
// plain data-access endpoints around the chat core; they carry no
// distribution logic.
type RoomHandler struct {
	service *chat.Service
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(service *chat.Service) *RoomHandler {
	return &RoomHandler{service: service}
}

// Create handles POST /api/rooms. The operation is idempotent over the
// unordered participant pair: re-posting with host and guest swapped
// returns the existing room.
func (h *RoomHandler) Create(c echo.Context) error {
	var req CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	room, err := h.service.CreateRoom(c.Request().Context(), req.HostID, req.GuestID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create room")
	}
	return c.JSON(http.StatusOK, room)
}

// List handles GET /api/rooms. With a user query parameter the listing is
// narrowed to the rooms that user participates in, as host or guest.
func (h *RoomHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := c.QueryParam("user"); raw != "" {
		userID, err := parseID(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
		}
		rooms, err := h.service.RoomsFor(ctx, userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list rooms")
		}
		return c.JSON(http.StatusOK, rooms)
	}

	rooms, err := h.service.Rooms(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list rooms")
	}
	return c.JSON(http.StatusOK, rooms)
}

// History handles GET /api/rooms/:id/messages?page=&size=.
func (h *RoomHandler) History(c echo.Context) error {
	roomID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid room id")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	if _, err := h.service.Room(c.Request().Context(), roomID); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "room not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch room")
	}

	history, err := h.service.History(c.Request().Context(), roomID, page, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch history")
	}
	return c.JSON(http.StatusOK, history)
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
