// Package wire owns the JSON envelope exchanged over the realtime
// connection. Inbound frames decode to domain events, outbound commands
// marshal from the typed structs below. The envelope is tagged by "type".
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"shelftalk/domain"
	"shelftalk/domain/event"
)

// Inbound event types.
const (
	TypeNewMessage     = "new_message"
	TypeUserTyping     = "user_typing"
	TypePresenceUpdate = "presence_update"
)

// Outbound command types.
const (
	TypeJoinRoom    = "join_room"
	TypeLeaveRoom   = "leave_room"
	TypeMarkRead    = "mark_read"
	TypeSendMessage = "send_message"
)

type inboundMessage struct {
	ID        int64  `json:"id"`
	RoomID    int64  `json:"room_id"`
	SenderID  int64  `json:"sender_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type inboundEnvelope struct {
	Type     string          `json:"type"`
	Message  json.RawMessage `json:"message"`
	RoomID   int64           `json:"room_id"`
	UserID   int64           `json:"user_id"`
	IsTyping bool            `json:"is_typing"`
	Status   string          `json:"status"`
}

// DecodeServerEvent parses one inbound frame. A frame that is not valid
// JSON, or whose type-specific payload is broken, returns an error so the
// caller can drop it without touching the connection. An unrecognized
// type decodes to event.Unknown with a nil error.
func DecodeServerEvent(data []byte) (event.ServerEvent, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Type {
	case TypeNewMessage:
		if len(env.Message) == 0 {
			return nil, fmt.Errorf("new_message frame without message object")
		}
		var msg inboundMessage
		if err := json.Unmarshal(env.Message, &msg); err != nil {
			return nil, fmt.Errorf("malformed new_message payload: %w", err)
		}
		return event.NewMessage{Message: toDomainMessage(msg)}, nil
	case TypeUserTyping:
		return event.UserTyping{
			RoomID:   domain.RoomID(env.RoomID),
			UserID:   env.UserID,
			IsTyping: env.IsTyping,
		}, nil
	case TypePresenceUpdate:
		return event.PresenceUpdate{UserID: env.UserID, Status: env.Status}, nil
	default:
		return event.Unknown{Type: env.Type}, nil
	}
}

// toDomainMessage converts a wire message. Timestamps are best-effort:
// arrival order is authoritative on the client, so a created_at the
// server formatted differently degrades to the zero time instead of
// failing the whole frame.
func toDomainMessage(msg inboundMessage) domain.Message {
	at, err := time.Parse(time.RFC3339, msg.CreatedAt)
	if err != nil {
		at = time.Time{}
	}
	return domain.Message{
		ID:        msg.ID,
		RoomID:    domain.RoomID(msg.RoomID),
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: at,
	}
}
