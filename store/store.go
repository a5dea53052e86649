//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
// Package store holds the authoritative client-side chat state: the room
// list, the selected room, its message buffer, and per-room unread
// counters. It consumes server events from the realtime bus and user
// actions, and never mutates anything it does not own.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"shelftalk/domain"
	"shelftalk/domain/event"
	"shelftalk/wire"
)

// EnvelopeSender is the outbound half of the connection. Sends are
// best-effort: the realtime manager drops them with a warning when the
// connection is not open.
type EnvelopeSender interface {
	Send(cmd wire.Outbound) error
}

// HistoryFetcher is the REST collaborator that backfills a room's recent
// messages after a switch.
type HistoryFetcher interface {
	RoomMessages(ctx context.Context, roomID domain.RoomID, limit int) ([]domain.Message, error)
}

// DefaultHistoryLimit bounds the history backfill on room selection.
const DefaultHistoryLimit = 50

// Store is safe for concurrent use: server events arrive on the
// connection's read goroutine while user actions come from the caller.
type Store struct {
	log     *slog.Logger
	sender  EnvelopeSender
	history HistoryFetcher
	limit   int

	mu        sync.Mutex
	rooms     []*domain.Room
	index     map[domain.RoomID]*domain.Room
	current   domain.RoomID
	buffer    []domain.Message
	fetchSeq  uint64
	fetchDone sync.WaitGroup
}

func New(log *slog.Logger, sender EnvelopeSender, history HistoryFetcher, historyLimit int) *Store {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Store{
		log:     log,
		sender:  sender,
		history: history,
		limit:   historyLimit,
		index:   make(map[domain.RoomID]*domain.Room),
	}
}

// SetRooms replaces the room list, typically with the result of the
// rooms endpoint. Unread counters restart from whatever the server
// reported.
func (s *Store) SetRooms(rooms []domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = make([]*domain.Room, 0, len(rooms))
	s.index = make(map[domain.RoomID]*domain.Room, len(rooms))
	for i := range rooms {
		room := rooms[i]
		s.rooms = append(s.rooms, &room)
		s.index[room.ID] = &room
	}
}

// HandleEvent consumes one decoded server event. It is the single entry
// point the realtime bus is subscribed with.
func (s *Store) HandleEvent(evt event.ServerEvent) {
	switch e := evt.(type) {
	case event.NewMessage:
		s.applyNewMessage(e.Message)
	case event.UserTyping:
		// Reserved: typing indicators carry no state transition yet.
	case event.PresenceUpdate:
		// Reserved: presence carries no state transition yet.
	case event.Unknown:
		s.log.Debug(fmt.Sprintf("Ignoring unknown event type %q", e.Type))
	}
}

func (s *Store) applyNewMessage(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.index[msg.RoomID]
	if !ok {
		// Room not loaded yet; the message will come back via history
		// once the room list catches up.
		s.log.Debug(fmt.Sprintf("Dropping message %d for unloaded room %d", msg.ID, msg.RoomID))
		return
	}
	if msg.RoomID == s.current {
		s.buffer = append(s.buffer, msg)
		return
	}
	room.UnreadCount++
}

// SelectRoom makes roomID current. Synchronously: the buffer is emptied,
// the room's unread counter resets, and best-effort leave/join/mark_read
// envelopes go out. The history backfill runs asynchronously with
// last-request-wins semantics; a stale or failed fetch leaves the buffer
// alone.
func (s *Store) SelectRoom(ctx context.Context, roomID domain.RoomID) {
	s.mu.Lock()
	previous := s.current
	s.current = roomID
	s.buffer = nil
	if room, ok := s.index[roomID]; ok {
		room.UnreadCount = 0
	}
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	if previous != domain.None && previous != roomID {
		_ = s.sender.Send(wire.NewLeaveRoom(previous))
	}
	_ = s.sender.Send(wire.NewJoinRoom(roomID))
	_ = s.sender.Send(wire.NewMarkRead(roomID))

	s.fetchDone.Add(1)
	go s.backfill(ctx, roomID, seq)
}

func (s *Store) backfill(ctx context.Context, roomID domain.RoomID, seq uint64) {
	defer s.fetchDone.Done()

	messages, err := s.history.RoomMessages(ctx, roomID, s.limit)
	if err != nil {
		s.log.Warn(fmt.Sprintf("History fetch for room %d failed: %v", roomID, err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.fetchSeq || s.current != roomID {
		s.log.Debug(fmt.Sprintf("Discarding stale history for room %d", roomID))
		return
	}
	s.buffer = messages
}

// SendMessage forwards the content as a send_message envelope. Empty
// content (after trimming) or no selected room is a silent no-op. The
// message is not appended locally; the buffer only ever holds what the
// server echoed back, trading perceived latency for consistency.
func (s *Store) SendMessage(content string) error {
	content = strings.TrimSpace(content)

	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == domain.None || content == "" {
		s.log.Debug("Ignoring send: no room selected or empty content")
		return nil
	}

	cmd := wire.NewSendMessage(current, content)
	if err := cmd.Validate(); err != nil {
		return err
	}
	return s.sender.Send(cmd)
}

// CurrentRoomID returns the selected room, domain.None when unset.
func (s *Store) CurrentRoomID() domain.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Rooms returns a copy of the room list in server order.
func (s *Store) Rooms() []domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, *room)
	}
	return out
}

// Messages returns a copy of the current room's buffer in arrival order.
func (s *Store) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.buffer))
	copy(out, s.buffer)
	return out
}

// Wait blocks until in-flight history fetches settle. Tests use it to
// avoid sleeping.
func (s *Store) Wait() {
	s.fetchDone.Wait()
}
