package domain

import "time"

// Message represents an immutable chat message as confirmed by the server.
// Ordering inside client buffers is arrival order, not CreatedAt order.
type Message struct {
	ID        int64
	RoomID    RoomID
	SenderID  int64
	Content   string
	CreatedAt time.Time
}
