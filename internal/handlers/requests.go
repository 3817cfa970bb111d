package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement
// Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a validator for the request DTOs.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// CreateRoomRequest is the payload for creating (or re-requesting) a room.
type CreateRoomRequest struct {
	HostID  int64 `json:"hostId" validate:"required,gt=0"`
	GuestID int64 `json:"guestId" validate:"required,gt=0"`
}

// SendMessageRequest is the ingress payload for one message send. The
// message id, sender name and timestamp are never supplied by the caller.
type SendMessageRequest struct {
	SenderID int64  `json:"senderId" validate:"required,gt=0"`
	Body     string `json:"body" validate:"required"`
}
