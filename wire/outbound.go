package wire

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"shelftalk/domain"
	"shelftalk/errors"
)

// MaxContentLength matches the server-side cap on message content.
const MaxContentLength = 5000

var validate = validator.New()

// Outbound is implemented by every command the client may transmit.
type Outbound interface {
	isOutbound()
}

type JoinRoom struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"room_id"`
}

type LeaveRoom struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"room_id"`
}

type MarkRead struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"room_id"`
}

type SendMessage struct {
	Type    string        `json:"type"`
	RoomID  domain.RoomID `json:"room_id"`
	Content string        `json:"content" validate:"max=5000"`
}

func (JoinRoom) isOutbound()    {}
func (LeaveRoom) isOutbound()   {}
func (MarkRead) isOutbound()    {}
func (SendMessage) isOutbound() {}

func NewJoinRoom(roomID domain.RoomID) JoinRoom {
	return JoinRoom{Type: TypeJoinRoom, RoomID: roomID}
}

func NewLeaveRoom(roomID domain.RoomID) LeaveRoom {
	return LeaveRoom{Type: TypeLeaveRoom, RoomID: roomID}
}

func NewMarkRead(roomID domain.RoomID) MarkRead {
	return MarkRead{Type: TypeMarkRead, RoomID: roomID}
}

func NewSendMessage(roomID domain.RoomID, content string) SendMessage {
	return SendMessage{Type: TypeSendMessage, RoomID: roomID, Content: content}
}

// Validate enforces the server's content rules before the command is
// put on the wire.
func (s SendMessage) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrContentTooLong, err)
	}
	return nil
}
