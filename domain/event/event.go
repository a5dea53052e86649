// Package event defines the server events delivered over the realtime
// connection as a closed set of variants. Dispatchers switch over the
// concrete types, which keeps the reserved no-op kinds visible at the
// call site instead of falling through a string comparison.
package event

import "shelftalk/domain"

// ServerEvent is implemented by every decoded inbound event.
type ServerEvent interface {
	isServerEvent()
}

// NewMessage carries a server-confirmed chat message.
type NewMessage struct {
	Message domain.Message
}

// UserTyping is a recognized event kind reserved for future use.
// Consumers must treat it as a no-op, not as an unknown event.
type UserTyping struct {
	RoomID   domain.RoomID
	UserID   int64
	IsTyping bool
}

// PresenceUpdate is a recognized event kind reserved for future use.
type PresenceUpdate struct {
	UserID int64
	Status string
}

// Unknown stands in for any event type this client does not recognize.
// It exists so newer servers never break older clients.
type Unknown struct {
	Type string
}

func (NewMessage) isServerEvent()     {}
func (UserTyping) isServerEvent()     {}
func (PresenceUpdate) isServerEvent() {}
func (Unknown) isServerEvent()        {}
