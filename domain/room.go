// Package domain contains core concepts of the chat client.
// Rooms, messages and connection state are plain values; all mutation
// rules live in the store that owns them.
package domain

// RoomID identifies a chat room. The server issues positive integers;
// the zero value is reserved for "no room selected".
type RoomID int64

// None is the RoomID used when no room is selected.
const None RoomID = 0

// RoomKind mirrors the room_type values of the chat API.
type RoomKind string

const (
	RoomDirect  RoomKind = "direct"
	RoomGroup   RoomKind = "group"
	RoomChannel RoomKind = "channel"
)

// Room is a chat conversation context together with its client-side
// unread counter. UnreadCount is never negative.
type Room struct {
	ID          RoomID
	Name        string
	Kind        RoomKind
	UnreadCount int
}
